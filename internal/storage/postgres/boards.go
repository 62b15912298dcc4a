package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ticketkit/ticketkit/internal/types"
)

// Allowed fields for board update to prevent SQL injection
var allowedBoardFields = map[string]bool{
	"name":        true,
	"description": true,
	"workflow_id": true,
}

// CreateBoard creates a new board
func (s *PostgresStorage) CreateBoard(ctx context.Context, board *types.Board) error {
	if err := board.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if board.WorkflowID == "" {
		board.WorkflowID = "kanban"
	}
	if board.CreatedAt.IsZero() {
		board.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO boards (id, name, description, workflow_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, board.ID, board.Name, board.Description, board.WorkflowID, board.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	return nil
}

// GetBoard retrieves a board by ID. Returns (nil, nil) when absent.
func (s *PostgresStorage) GetBoard(ctx context.Context, id string) (*types.Board, error) {
	var board types.Board
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, workflow_id, created_at
		FROM boards
		WHERE id = $1
	`, id).Scan(&board.ID, &board.Name, &board.Description, &board.WorkflowID, &board.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &board, nil
}

// ListBoards returns all boards, newest first
func (s *PostgresStorage) ListBoards(ctx context.Context) ([]*types.Board, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, workflow_id, created_at
		FROM boards
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []*types.Board
	for rows.Next() {
		var board types.Board
		if err := rows.Scan(&board.ID, &board.Name, &board.Description, &board.WorkflowID, &board.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, &board)
	}
	return boards, rows.Err()
}

// UpdateBoard updates fields on a board and returns the fresh row.
// Unknown fields are rejected; an empty update returns the board as-is.
func (s *PostgresStorage) UpdateBoard(ctx context.Context, id string, updates map[string]any) (*types.Board, error) {
	setClauses := []string{}
	args := []any{}

	for key, value := range updates {
		if !allowedBoardFields[key] {
			return nil, fmt.Errorf("invalid field for board update: %s", key)
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, len(args)))
	}

	if len(setClauses) == 0 {
		return s.GetBoard(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE boards SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), len(args))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return s.GetBoard(ctx, id)
}

// DeleteBoard deletes a board. Foreign keys cascade the delete to the
// board's tickets, their comments/activities/attachments, and the
// board's snapshots.
func (s *PostgresStorage) DeleteBoard(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}
