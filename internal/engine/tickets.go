package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/diff"
	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/types"
)

// TicketParams holds the caller-supplied fields for ticket creation.
// Zero values fall back to defaults: status to the workflow's first
// state, priority to medium.
type TicketParams struct {
	Title        string
	Description  string
	Status       string
	Priority     types.Priority
	Labels       []string
	Assignees    []string
	CustomFields map[string]any
	Position     int
	DueDate      *time.Time
}

// CreateTicket creates a ticket on a board, defaulting the status to
// the board workflow's initial state. An explicitly supplied status
// must be one of the workflow's declared states. Writes a created
// activity carrying the full ticket snapshot and emits ticket:created.
func (e *Engine) CreateTicket(ctx context.Context, boardID string, params TicketParams, actor string) (*types.Ticket, error) {
	return e.createTicket(ctx, boardID, "", params, actor)
}

// CreateSubtask creates a ticket under a parent ticket, inheriting the
// parent's board and otherwise following the normal create path.
func (e *Engine) CreateSubtask(ctx context.Context, parentID string, params TicketParams, actor string) (*types.Ticket, error) {
	parent, err := e.GetTicket(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return e.createTicket(ctx, parent.BoardID, parentID, params, actor)
}

func (e *Engine) createTicket(ctx context.Context, boardID, parentID string, params TicketParams, actor string) (*types.Ticket, error) {
	board, err := e.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	wf, err := e.workflows.Resolve(ctx, board.WorkflowID)
	if err != nil {
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = wf.InitialState()
	} else if !wf.HasState(status) {
		return nil, fmt.Errorf("status %q is not a state of workflow %s", status, wf.ID)
	}

	priority := params.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}

	ticket := &types.Ticket{
		ID:           uuid.NewString(),
		BoardID:      boardID,
		Title:        params.Title,
		Description:  params.Description,
		Status:       status,
		Priority:     priority,
		Labels:       params.Labels,
		Assignees:    params.Assignees,
		ParentID:     parentID,
		CustomFields: params.CustomFields,
		Position:     params.Position,
		DueDate:      params.DueDate,
	}
	if err := e.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	if err := e.recordActivity(ctx, ticket.ID, actor, types.ActionCreated, map[string]any{"ticket": ticket}); err != nil {
		return nil, err
	}
	e.bus.Publish(events.TicketCreated, ticket)
	return ticket, nil
}

// GetTicket retrieves a ticket, failing with ErrNotFound when absent.
func (e *Engine) GetTicket(ctx context.Context, id string) (*types.Ticket, error) {
	ticket, err := e.store.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, types.NotFoundError("ticket", id)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (e *Engine) ListTickets(ctx context.Context, query types.TicketQuery) ([]*types.Ticket, error) {
	return e.store.ListTickets(ctx, query)
}

// UpdateTicket applies field updates to a ticket. A status change is
// validated against the board's workflow and fails with
// InvalidTransitionError when illegal, leaving the ticket untouched.
//
// The update is diffed field by field against the prior state; when
// any field actually changed, one activity is written (status_changed
// if status is among the changes, updated otherwise) and
// ticket:updated is emitted with the diff. A no-op update writes no
// activity and emits nothing.
func (e *Engine) UpdateTicket(ctx context.Context, id string, updates map[string]any, actor string) (*types.Ticket, error) {
	existing, err := e.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if rawStatus, ok := updates["status"]; ok {
		newStatus, _ := rawStatus.(string)
		if newStatus != existing.Status {
			if err := e.checkTransition(ctx, existing, newStatus); err != nil {
				return nil, err
			}
		}
	}

	updated, err := e.store.UpdateTicket(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	before, err := ticketFields(existing)
	if err != nil {
		return nil, err
	}
	after, err := ticketFields(updated)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	changes := diff.Fields(before, after, keys)
	if len(changes) == 0 {
		return updated, nil
	}

	action := types.ActionUpdated
	if _, ok := changes["status"]; ok {
		action = types.ActionStatusChanged
	}
	payload := make(map[string]any, len(changes))
	for field, change := range changes {
		payload[field] = change
	}
	if err := e.recordActivity(ctx, id, actor, action, payload); err != nil {
		return nil, err
	}

	e.bus.Publish(events.TicketUpdated, events.TicketUpdatedPayload{
		Ticket:  updated,
		Changes: changes,
	})
	return updated, nil
}

func (e *Engine) checkTransition(ctx context.Context, ticket *types.Ticket, newStatus string) error {
	board, err := e.GetBoard(ctx, ticket.BoardID)
	if err != nil {
		return err
	}
	wf, err := e.workflows.Resolve(ctx, board.WorkflowID)
	if err != nil {
		return err
	}
	if !wf.CanTransition(ticket.Status, newStatus) {
		return &types.InvalidTransitionError{
			From:    ticket.Status,
			To:      newStatus,
			Allowed: wf.AllowedFrom(ticket.Status),
		}
	}
	return nil
}

// MoveTicket transitions a ticket to a new status.
func (e *Engine) MoveTicket(ctx context.Context, id, status, actor string) (*types.Ticket, error) {
	return e.UpdateTicket(ctx, id, map[string]any{"status": status}, actor)
}

// AssignTicket replaces a ticket's assignee set. On top of the normal
// update diff/event, it writes a dedicated assigned activity naming
// the new assignees. The double record is intentional: one generic
// field diff plus one semantically named entry.
func (e *Engine) AssignTicket(ctx context.Context, id string, assignees []string, actor string) (*types.Ticket, error) {
	ticket, err := e.UpdateTicket(ctx, id, map[string]any{"assignees": assignees}, actor)
	if err != nil {
		return nil, err
	}
	if err := e.recordActivity(ctx, id, actor, types.ActionAssigned, map[string]any{"assignees": assignees}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// DeleteTicket deletes a ticket; comments, activities, and attachments
// cascade in storage. Emits ticket:deleted.
func (e *Engine) DeleteTicket(ctx context.Context, id, actor string) error {
	ticket, err := e.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.DeleteTicket(ctx, id); err != nil {
		return err
	}

	e.bus.Publish(events.TicketDeleted, events.TicketDeletedPayload{ID: id, Ticket: ticket})
	return nil
}

// BulkResult reports the outcome of one ticket within a bulk update.
type BulkResult struct {
	ID     string
	Ticket *types.Ticket
	Err    error
}

// BulkUpdateTickets applies the same update to each ticket in turn.
// Best-effort and non-transactional: a failing ticket does not stop
// the rest, and earlier updates stay applied. The per-id results let
// callers observe partial failure.
func (e *Engine) BulkUpdateTickets(ctx context.Context, ids []string, updates map[string]any, actor string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		ticket, err := e.UpdateTicket(ctx, id, updates, actor)
		results = append(results, BulkResult{ID: id, Ticket: ticket, Err: err})
	}
	return results
}

// Subtasks returns a ticket's direct subtasks.
func (e *Engine) Subtasks(ctx context.Context, parentID string) ([]*types.Ticket, error) {
	if _, err := e.GetTicket(ctx, parentID); err != nil {
		return nil, err
	}
	return e.store.ListTickets(ctx, types.TicketQuery{ParentID: &parentID})
}

// ticketFields reduces a ticket to its JSON field map, the shape the
// diff engine compares. Field names match the snake_case update keys.
func ticketFields(t *types.Ticket) (map[string]any, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode ticket fields: %w", err)
	}
	return fields, nil
}
