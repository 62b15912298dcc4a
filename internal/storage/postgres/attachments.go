package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ticketkit/ticketkit/internal/types"
)

// CreateAttachment stores an attachment metadata record
func (s *PostgresStorage) CreateAttachment(ctx context.Context, att *types.Attachment) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO attachments (id, ticket_id, filename, original_filename,
			mime_type, size_bytes, storage_path, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, att.ID, att.TicketID, att.Filename, att.OriginalFilename,
		att.MimeType, att.SizeBytes, att.StoragePath, att.UploadedBy, att.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// GetAttachment retrieves an attachment by ID. Returns (nil, nil) when
// absent.
func (s *PostgresStorage) GetAttachment(ctx context.Context, id string) (*types.Attachment, error) {
	var att types.Attachment
	err := s.pool.QueryRow(ctx, `
		SELECT id, ticket_id, filename, original_filename, mime_type,
			size_bytes, storage_path, uploaded_by, created_at
		FROM attachments
		WHERE id = $1
	`, id).Scan(&att.ID, &att.TicketID, &att.Filename, &att.OriginalFilename,
		&att.MimeType, &att.SizeBytes, &att.StoragePath, &att.UploadedBy, &att.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &att, nil
}

// ListAttachments returns a ticket's attachments, newest first
func (s *PostgresStorage) ListAttachments(ctx context.Context, ticketID string) ([]*types.Attachment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ticket_id, filename, original_filename, mime_type,
			size_bytes, storage_path, uploaded_by, created_at
		FROM attachments
		WHERE ticket_id = $1
		ORDER BY created_at DESC
	`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*types.Attachment
	for rows.Next() {
		var att types.Attachment
		if err := rows.Scan(&att.ID, &att.TicketID, &att.Filename, &att.OriginalFilename,
			&att.MimeType, &att.SizeBytes, &att.StoragePath, &att.UploadedBy, &att.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, &att)
	}
	return attachments, rows.Err()
}

// DeleteAttachment deletes an attachment record
func (s *PostgresStorage) DeleteAttachment(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}
