package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

// CountTicketsByStatus counts a board's tickets currently at a status
func (s *SQLiteStorage) CountTicketsByStatus(ctx context.Context, boardID, status string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tickets WHERE board_id = ? AND status = ?
	`, boardID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

// UpsertSnapshot inserts a status snapshot, overwriting the count if a
// row already exists for the same (board, date, status). Idempotent.
func (s *SQLiteStorage) UpsertSnapshot(ctx context.Context, snap *types.StatusSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_snapshots (id, board_id, snapshot_date, status, count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(board_id, snapshot_date, status)
		DO UPDATE SET count = excluded.count
	`, snap.ID, snap.BoardID, snap.SnapshotDate, snap.Status, snap.Count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns a board's snapshots within the inclusive date
// range, ordered ascending by date then status name.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context, boardID string, rng types.DateRange) ([]*types.StatusSnapshot, error) {
	querySQL := `
		SELECT id, board_id, snapshot_date, status, count
		FROM status_snapshots
		WHERE board_id = ?`
	args := []any{boardID}

	if rng.From != "" {
		querySQL += " AND snapshot_date >= ?"
		args = append(args, rng.From)
	}
	if rng.To != "" {
		querySQL += " AND snapshot_date <= ?"
		args = append(args, rng.To)
	}
	querySQL += " ORDER BY snapshot_date ASC, status ASC"

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*types.StatusSnapshot
	for rows.Next() {
		var snap types.StatusSnapshot
		if err := rows.Scan(&snap.ID, &snap.BoardID, &snap.SnapshotDate, &snap.Status, &snap.Count); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}
	return snapshots, rows.Err()
}

// StatusChangeDates returns the distinct calendar dates (ascending,
// YYYY-MM-DD) on which at least one status change was recorded for the
// board's tickets, optionally bounded by the date range.
func (s *SQLiteStorage) StatusChangeDates(ctx context.Context, boardID string, rng types.DateRange) ([]string, error) {
	querySQL := `
		SELECT DISTINCT date(a.created_at) AS activity_date
		FROM activities a
		INNER JOIN tickets t ON a.ticket_id = t.id
		WHERE t.board_id = ? AND a.action = ?`
	args := []any{boardID, string(types.ActionStatusChanged)}

	if rng.From != "" {
		querySQL += " AND date(a.created_at) >= ?"
		args = append(args, rng.From)
	}
	if rng.To != "" {
		querySQL += " AND date(a.created_at) <= ?"
		args = append(args, rng.To)
	}
	querySQL += " ORDER BY activity_date ASC"

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status change dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}
