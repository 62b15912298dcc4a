package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/types"
)

// AddComment creates a top-level comment on a ticket and writes a
// commented activity referencing it. Emits comment:created.
func (e *Engine) AddComment(ctx context.Context, ticketID, author, content string) (*types.Comment, error) {
	if _, err := e.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	comment := &types.Comment{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		Author:   author,
		Content:  content,
	}
	if err := e.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if err := e.recordActivity(ctx, ticketID, author, types.ActionCommented, map[string]any{"comment_id": comment.ID}); err != nil {
		return nil, err
	}
	e.bus.Publish(events.CommentCreated, comment)
	return comment, nil
}

// ReplyToComment creates a threaded reply under an existing comment.
// Unlike AddComment, a reply produces no ticket activity: only the
// top-level comment shows in the audit trail. Emits comment:created.
func (e *Engine) ReplyToComment(ctx context.Context, ticketID, parentID, author, content string) (*types.Comment, error) {
	if _, err := e.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	comment := &types.Comment{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		Author:   author,
		Content:  content,
		ParentID: parentID,
	}
	if err := e.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	e.bus.Publish(events.CommentCreated, comment)
	return comment, nil
}

// ListComments returns a ticket's comments, oldest first.
func (e *Engine) ListComments(ctx context.Context, ticketID string) ([]*types.Comment, error) {
	if _, err := e.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return e.store.ListComments(ctx, ticketID)
}

// DeleteComment removes a comment. Comments are never updated, only
// created and deleted.
func (e *Engine) DeleteComment(ctx context.Context, id string) error {
	return e.store.DeleteComment(ctx, id)
}
