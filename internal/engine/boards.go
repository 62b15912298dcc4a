package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/types"
)

// BoardParams holds the caller-supplied fields for board creation.
type BoardParams struct {
	Name        string
	Description string
	WorkflowID  string
}

// CreateBoard creates a board governed by the given workflow (kanban
// when unspecified). The workflow must resolve, so a board can never
// reference a state machine that does not exist.
func (e *Engine) CreateBoard(ctx context.Context, params BoardParams) (*types.Board, error) {
	workflowID := params.WorkflowID
	if workflowID == "" {
		workflowID = "kanban"
	}
	if _, err := e.workflows.Resolve(ctx, workflowID); err != nil {
		return nil, err
	}

	board := &types.Board{
		ID:          uuid.NewString(),
		Name:        params.Name,
		Description: params.Description,
		WorkflowID:  workflowID,
	}
	if err := e.store.CreateBoard(ctx, board); err != nil {
		return nil, err
	}

	e.bus.Publish(events.BoardCreated, board)
	return board, nil
}

// GetBoard retrieves a board, failing with ErrNotFound when absent.
func (e *Engine) GetBoard(ctx context.Context, id string) (*types.Board, error) {
	board, err := e.store.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, types.NotFoundError("board", id)
	}
	return board, nil
}

// ListBoards returns all boards, newest first.
func (e *Engine) ListBoards(ctx context.Context) ([]*types.Board, error) {
	return e.store.ListBoards(ctx)
}

// UpdateBoard applies name/description/workflow_id updates to a board.
func (e *Engine) UpdateBoard(ctx context.Context, id string, updates map[string]any) (*types.Board, error) {
	if _, err := e.GetBoard(ctx, id); err != nil {
		return nil, err
	}
	if workflowID, ok := updates["workflow_id"].(string); ok {
		if _, err := e.workflows.Resolve(ctx, workflowID); err != nil {
			return nil, err
		}
	}

	board, err := e.store.UpdateBoard(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	e.bus.Publish(events.BoardUpdated, board)
	return board, nil
}

// DeleteBoard deletes a board; its tickets and their comments,
// activities, and attachments cascade in storage.
func (e *Engine) DeleteBoard(ctx context.Context, id string) error {
	if _, err := e.GetBoard(ctx, id); err != nil {
		return err
	}
	if err := e.store.DeleteBoard(ctx, id); err != nil {
		return err
	}

	e.bus.Publish(events.BoardDeleted, events.BoardDeletedPayload{ID: id})
	return nil
}
