package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

// CreateActivity appends an audit record. Activities are never updated
// or deleted by normal flow.
func (s *SQLiteStorage) CreateActivity(ctx context.Context, activity *types.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	changes, err := marshalField(activity.Changes, "{}")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activities (id, ticket_id, actor, action, changes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, activity.ID, activity.TicketID, activity.Actor, string(activity.Action),
		changes, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns a ticket's audit trail, newest first.
func (s *SQLiteStorage) ListActivities(ctx context.Context, ticketID string, limit int) ([]*types.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, actor, action, changes, created_at
		FROM activities
		WHERE ticket_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, ticketID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// QueryActivity returns a board's audit trail with optional time-range,
// actor, and action filters, newest first.
func (s *SQLiteStorage) QueryActivity(ctx context.Context, boardID string, query types.ActivityQuery) ([]*types.Activity, error) {
	whereClauses := []string{"t.board_id = ?"}
	args := []any{boardID}

	if query.From != nil {
		whereClauses = append(whereClauses, "a.created_at >= ?")
		args = append(args, *query.From)
	}
	if query.To != nil {
		whereClauses = append(whereClauses, "a.created_at <= ?")
		args = append(args, *query.To)
	}
	if len(query.Actors) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.Actors)), ",")
		whereClauses = append(whereClauses, fmt.Sprintf("a.actor IN (%s)", placeholders))
		for _, actor := range query.Actors {
			args = append(args, actor)
		}
	}
	if len(query.Actions) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.Actions)), ",")
		whereClauses = append(whereClauses, fmt.Sprintf("a.action IN (%s)", placeholders))
		for _, action := range query.Actions {
			args = append(args, string(action))
		}
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

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

type activityRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanActivities(rows activityRows) ([]*types.Activity, error) {
	var activities []*types.Activity
	for rows.Next() {
		var activity types.Activity
		var changes string
		if err := rows.Scan(&activity.ID, &activity.TicketID, &activity.Actor,
			&activity.Action, &changes, &activity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &activity.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode changes: %w", err)
		}
		activities = append(activities, &activity)
	}
	return activities, rows.Err()
}
