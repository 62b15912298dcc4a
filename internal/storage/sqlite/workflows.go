package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ticketkit/ticketkit/internal/types"
)

// GetWorkflow retrieves a workflow by ID. Returns (nil, nil) when
// absent; the registry layer supplies built-in fallbacks.
func (s *SQLiteStorage) GetWorkflow(ctx context.Context, id string) (*types.Workflow, error) {
	var wf types.Workflow
	var states, transitions string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, states, transitions FROM workflows WHERE id = ?
	`, id).Scan(&wf.ID, &wf.Name, &states, &transitions)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if err := json.Unmarshal([]byte(states), &wf.States); err != nil {
		return nil, fmt.Errorf("failed to decode states: %w", err)
	}
	if err := json.Unmarshal([]byte(transitions), &wf.Transitions); err != nil {
		return nil, fmt.Errorf("failed to decode transitions: %w", err)
	}
	return &wf, nil
}

// CreateWorkflow inserts or replaces a workflow definition
func (s *SQLiteStorage) CreateWorkflow(ctx context.Context, wf *types.Workflow) error {
	states, err := json.Marshal(wf.States)
	if err != nil {
		return fmt.Errorf("failed to marshal states: %w", err)
	}
	transitions, err := json.Marshal(wf.Transitions)
	if err != nil {
		return fmt.Errorf("failed to marshal transitions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workflows (id, name, states, transitions)
		VALUES (?, ?, ?, ?)
	`, wf.ID, wf.Name, string(states), string(transitions))
	if err != nil {
		return fmt.Errorf("failed to insert workflow: %w", err)
	}
	return nil
}
