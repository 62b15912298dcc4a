package engine

import (
	"context"

	"github.com/ticketkit/ticketkit/internal/search"
	"github.com/ticketkit/ticketkit/internal/types"
)

// KanbanView is a board's tickets partitioned into one column per
// workflow state. Column order follows Workflow.States; within a
// column, tickets keep storage order (position ascending, then
// recency).
type KanbanView struct {
	Board    *types.Board
	Workflow *types.Workflow
	Columns  map[string][]*types.Ticket
}

// KanbanView partitions a board's tickets by workflow state. Every
// state gets a column, empty or not.
func (e *Engine) KanbanView(ctx context.Context, boardID string) (*KanbanView, error) {
	board, err := e.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	wf, err := e.workflows.Resolve(ctx, board.WorkflowID)
	if err != nil {
		return nil, err
	}

	tickets, err := e.store.ListTickets(ctx, types.TicketQuery{BoardID: boardID})
	if err != nil {
		return nil, err
	}

	columns := make(map[string][]*types.Ticket, len(wf.States))
	for _, state := range wf.States {
		columns[state] = []*types.Ticket{}
	}
	for _, ticket := range tickets {
		if _, ok := columns[ticket.Status]; ok {
			columns[ticket.Status] = append(columns[ticket.Status], ticket)
		}
	}

	return &KanbanView{Board: board, Workflow: wf, Columns: columns}, nil
}

// Backlog returns the board's tickets sitting in the workflow's first
// state.
func (e *Engine) Backlog(ctx context.Context, boardID string) ([]*types.Ticket, error) {
	board, err := e.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	wf, err := e.workflows.Resolve(ctx, board.WorkflowID)
	if err != nil {
		return nil, err
	}
	return e.store.ListTickets(ctx, types.TicketQuery{
		BoardID: boardID,
		Status:  wf.InitialState(),
	})
}

// Search runs a query-language string against a board's tickets.
func (e *Engine) Search(ctx context.Context, boardID, query string) ([]*types.Ticket, error) {
	if _, err := e.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	return e.store.ListTickets(ctx, search.Compile(boardID, query))
}
