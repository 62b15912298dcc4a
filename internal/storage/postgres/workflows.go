package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ticketkit/ticketkit/internal/types"
)

// GetWorkflow retrieves a workflow by ID. Returns (nil, nil) when
// absent; the registry layer supplies built-in fallbacks.
func (s *PostgresStorage) GetWorkflow(ctx context.Context, id string) (*types.Workflow, error) {
	var wf types.Workflow
	var states, transitions []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, states, transitions FROM workflows WHERE id = $1
	`, id).Scan(&wf.ID, &wf.Name, &states, &transitions)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if err := json.Unmarshal(states, &wf.States); err != nil {
		return nil, fmt.Errorf("failed to decode states: %w", err)
	}
	if err := json.Unmarshal(transitions, &wf.Transitions); err != nil {
		return nil, fmt.Errorf("failed to decode transitions: %w", err)
	}
	return &wf, nil
}

// CreateWorkflow inserts or replaces a workflow definition
func (s *PostgresStorage) CreateWorkflow(ctx context.Context, wf *types.Workflow) error {
	states, err := json.Marshal(wf.States)
	if err != nil {
		return fmt.Errorf("failed to marshal states: %w", err)
	}
	transitions, err := json.Marshal(wf.Transitions)
	if err != nil {
		return fmt.Errorf("failed to marshal transitions: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflows (id, name, states, transitions)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			states = excluded.states,
			transitions = excluded.transitions
	`, wf.ID, wf.Name, states, transitions)
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}
