package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/types"
)

// bundleVersion tags exported board bundles so future format changes
// can be detected on import.
const bundleVersion = "1.0.0"

// Bundle is a portable board export: the board plus all its tickets.
// Comments, activities, and attachments are not bundled; the audit
// trail belongs to the originating installation.
type Bundle struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Board      *types.Board    `json:"board"`
	Tickets    []*types.Ticket `json:"tickets"`
}

// ExportBoard packages a board and its tickets into a bundle.
func (e *Engine) ExportBoard(ctx context.Context, boardID string) (*Bundle, error) {
	board, err := e.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	tickets, err := e.store.ListTickets(ctx, types.TicketQuery{BoardID: boardID})
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Version:    bundleVersion,
		ExportedAt: time.Now().UTC(),
		Board:      board,
		Tickets:    tickets,
	}, nil
}

// ImportBoard recreates a bundle's board and tickets under fresh IDs,
// preserving the subtask structure. Audit trails are not imported;
// each ticket gets a single created activity attributed to the actor.
func (e *Engine) ImportBoard(ctx context.Context, bundle *Bundle, actor string) (*types.Board, error) {
	if bundle == nil || bundle.Board == nil {
		return nil, fmt.Errorf("bundle has no board")
	}
	if bundle.Version != bundleVersion {
		return nil, fmt.Errorf("unsupported bundle version: %s", bundle.Version)
	}

	board := &types.Board{
		ID:          uuid.NewString(),
		Name:        bundle.Board.Name,
		Description: bundle.Board.Description,
		WorkflowID:  bundle.Board.WorkflowID,
	}
	if _, err := e.workflows.Resolve(ctx, board.WorkflowID); err != nil {
		return nil, err
	}
	if err := e.store.CreateBoard(ctx, board); err != nil {
		return nil, err
	}

	// Two passes so every parent exists before its subtasks, whatever
	// order the bundle listed them in.
	idMap := make(map[string]string, len(bundle.Tickets))
	for _, src := range bundle.Tickets {
		idMap[src.ID] = uuid.NewString()
	}
	for _, topLevel := range []bool{true, false} {
		for _, src := range bundle.Tickets {
			if (src.ParentID == "") != topLevel {
				continue
			}
			ticket := &types.Ticket{
				ID:           idMap[src.ID],
				BoardID:      board.ID,
				Title:        src.Title,
				Description:  src.Description,
				Status:       src.Status,
				Priority:     src.Priority,
				Labels:       src.Labels,
				Assignees:    src.Assignees,
				ParentID:     idMap[src.ParentID],
				CustomFields: src.CustomFields,
				Position:     src.Position,
				DueDate:      src.DueDate,
			}
			if err := e.store.CreateTicket(ctx, ticket); err != nil {
				return nil, err
			}
			if err := e.recordActivity(ctx, ticket.ID, actor, types.ActionCreated, map[string]any{"ticket": ticket}); err != nil {
				return nil, err
			}
		}
	}

	e.bus.Publish(events.BoardCreated, board)
	return board, nil
}
