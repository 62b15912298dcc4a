package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/types"
)

// AttachmentParams holds the metadata for an attachment record. The
// file bytes live wherever StoragePath points; the engine only tracks
// the record.
type AttachmentParams struct {
	Filename         string
	OriginalFilename string
	MimeType         string
	SizeBytes        int64
	StoragePath      string
}

// AddAttachment records an attachment on a ticket, writes an
// attachment_added activity, and emits attachment:created.
func (e *Engine) AddAttachment(ctx context.Context, ticketID string, params AttachmentParams, actor string) (*types.Attachment, error) {
	if _, err := e.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	att := &types.Attachment{
		ID:               uuid.NewString(),
		TicketID:         ticketID,
		Filename:         params.Filename,
		OriginalFilename: params.OriginalFilename,
		MimeType:         params.MimeType,
		SizeBytes:        params.SizeBytes,
		StoragePath:      params.StoragePath,
		UploadedBy:       actor,
	}
	if err := e.store.CreateAttachment(ctx, att); err != nil {
		return nil, err
	}

	if err := e.recordActivity(ctx, ticketID, actor, types.ActionAttachmentAdded, map[string]any{
		"attachment_id": att.ID,
		"filename":      att.OriginalFilename,
	}); err != nil {
		return nil, err
	}
	e.bus.Publish(events.AttachmentCreated, att)
	return att, nil
}

// GetAttachment retrieves an attachment record, failing with
// ErrNotFound when absent.
func (e *Engine) GetAttachment(ctx context.Context, id string) (*types.Attachment, error) {
	att, err := e.store.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, types.NotFoundError("attachment", id)
	}
	return att, nil
}

// ListAttachments returns a ticket's attachment records, newest first.
func (e *Engine) ListAttachments(ctx context.Context, ticketID string) ([]*types.Attachment, error) {
	if _, err := e.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return e.store.ListAttachments(ctx, ticketID)
}

// DeleteAttachment removes an attachment record, writes an
// attachment_deleted activity, and emits attachment:deleted. The file
// bytes at StoragePath are the caller's to clean up.
func (e *Engine) DeleteAttachment(ctx context.Context, id, actor string) error {
	att, err := e.GetAttachment(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.DeleteAttachment(ctx, id); err != nil {
		return err
	}

	if err := e.recordActivity(ctx, att.TicketID, actor, types.ActionAttachmentDeleted, map[string]any{
		"attachment_id": att.ID,
		"filename":      att.OriginalFilename,
	}); err != nil {
		return err
	}
	e.bus.Publish(events.AttachmentDeleted, events.AttachmentDeletedPayload{ID: id, Attachment: att})
	return nil
}
