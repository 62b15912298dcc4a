package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

// CreateComment creates a new comment
func (s *PostgresStorage) CreateComment(ctx context.Context, comment *types.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO comments (id, ticket_id, author, content, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, comment.ID, comment.TicketID, comment.Author, comment.Content,
		nullString(comment.ParentID), comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns a ticket's comments, oldest first
func (s *PostgresStorage) ListComments(ctx context.Context, ticketID string) ([]*types.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ticket_id, author, content, parent_id, created_at
		FROM comments
		WHERE ticket_id = $1
		ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*types.Comment
	for rows.Next() {
		var comment types.Comment
		var parentID *string
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.Author,
			&comment.Content, &parentID, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if parentID != nil {
			comment.ParentID = *parentID
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}

// DeleteComment deletes a comment
func (s *PostgresStorage) DeleteComment(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
