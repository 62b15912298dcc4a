package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

// CreateComment creates a new comment
func (s *SQLiteStorage) CreateComment(ctx context.Context, comment *types.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, ticket_id, author, content, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, comment.ID, comment.TicketID, comment.Author, comment.Content,
		nullString(comment.ParentID), comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns a ticket's comments, oldest first
func (s *SQLiteStorage) ListComments(ctx context.Context, ticketID string) ([]*types.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, author, content, parent_id, created_at
		FROM comments
		WHERE ticket_id = ?
		ORDER BY created_at ASC
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*types.Comment
	for rows.Next() {
		var comment types.Comment
		var parentID sql.NullString
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.Author,
			&comment.Content, &parentID, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if parentID.Valid {
			comment.ParentID = parentID.String
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}

// DeleteComment deletes a comment
func (s *SQLiteStorage) DeleteComment(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
