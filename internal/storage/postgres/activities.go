package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ticketkit/ticketkit/internal/types"
)

// CreateActivity appends an audit record. Activities are never updated
// or deleted by normal flow.
func (s *PostgresStorage) CreateActivity(ctx context.Context, activity *types.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	changes, err := marshalField(activity.Changes, "{}")
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO activities (id, ticket_id, actor, action, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, activity.ID, activity.TicketID, activity.Actor, string(activity.Action),
		changes, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns a ticket's audit trail, newest first.
func (s *PostgresStorage) ListActivities(ctx context.Context, ticketID string, limit int) ([]*types.Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ticket_id, actor, action, changes, created_at
		FROM activities
		WHERE ticket_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, ticketID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// QueryActivity returns a board's audit trail with optional time-range,
// actor, and action filters, newest first.
func (s *PostgresStorage) QueryActivity(ctx context.Context, boardID string, query types.ActivityQuery) ([]*types.Activity, error) {
	whereClauses := []string{"t.board_id = $1"}
	args := []any{boardID}

	if query.From != nil {
		args = append(args, *query.From)
		whereClauses = append(whereClauses, fmt.Sprintf("a.created_at >= $%d", len(args)))
	}
	if query.To != nil {
		args = append(args, *query.To)
		whereClauses = append(whereClauses, fmt.Sprintf("a.created_at <= $%d", len(args)))
	}
	if len(query.Actors) > 0 {
		args = append(args, query.Actors)
		whereClauses = append(whereClauses, fmt.Sprintf("a.actor = ANY($%d)", len(args)))
	}
	if len(query.Actions) > 0 {
		actions := make([]string, len(query.Actions))
		for i, action := range query.Actions {
			actions[i] = string(action)
		}
		args = append(args, actions)
		whereClauses = append(whereClauses, fmt.Sprintf("a.action = ANY($%d)", len(args)))
	}

	querySQL := fmt.Sprintf(`
		SELECT a.id, a.ticket_id, a.actor, a.action, a.changes, a.created_at
		FROM activities a
		INNER JOIN tickets t ON a.ticket_id = t.id
		WHERE %s
		ORDER BY a.created_at DESC
	`, strings.Join(whereClauses, " AND "))

	if query.Limit > 0 {
		querySQL += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := s.pool.Query(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows pgx.Rows) ([]*types.Activity, error) {
	var activities []*types.Activity
	for rows.Next() {
		var activity types.Activity
		var changes []byte
		if err := rows.Scan(&activity.ID, &activity.TicketID, &activity.Actor,
			&activity.Action, &changes, &activity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if err := json.Unmarshal(changes, &activity.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode changes: %w", err)
		}
		activities = append(activities, &activity)
	}
	return activities, rows.Err()
}
