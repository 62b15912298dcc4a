package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

// CreateAttachment stores an attachment metadata record
func (s *SQLiteStorage) CreateAttachment(ctx context.Context, att *types.Attachment) error {
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, ticket_id, filename, original_filename,
			mime_type, size_bytes, storage_path, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, att.ID, att.TicketID, att.Filename, att.OriginalFilename,
		att.MimeType, att.SizeBytes, att.StoragePath, att.UploadedBy, att.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// GetAttachment retrieves an attachment by ID. Returns (nil, nil) when
// absent.
func (s *SQLiteStorage) GetAttachment(ctx context.Context, id string) (*types.Attachment, error) {
	var att types.Attachment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, ticket_id, filename, original_filename, mime_type,
			size_bytes, storage_path, uploaded_by, created_at
		FROM attachments
		WHERE id = ?
	`, id).Scan(&att.ID, &att.TicketID, &att.Filename, &att.OriginalFilename,
		&att.MimeType, &att.SizeBytes, &att.StoragePath, &att.UploadedBy, &att.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &att, nil
}

// ListAttachments returns a ticket's attachments, newest first
func (s *SQLiteStorage) ListAttachments(ctx context.Context, ticketID string) ([]*types.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket_id, filename, original_filename, mime_type,
			size_bytes, storage_path, uploaded_by, created_at
		FROM attachments
		WHERE ticket_id = ?
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
func (s *SQLiteStorage) DeleteAttachment(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}
