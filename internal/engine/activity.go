package engine

import (
	"context"

	"github.com/ticketkit/ticketkit/internal/export"
	"github.com/ticketkit/ticketkit/internal/types"
)

// defaultActivityLimit bounds ticket audit trail reads when the caller
// does not say otherwise.
const defaultActivityLimit = 50

// Activity returns a ticket's audit trail, newest first. limit <= 0
// uses the default of 50.
func (e *Engine) Activity(ctx context.Context, ticketID string, limit int) ([]*types.Activity, error) {
	if _, err := e.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return e.store.ListActivities(ctx, ticketID, limit)
}

// QueryActivity returns a board's audit trail with optional time,
// actor, and action filters, newest first.
func (e *Engine) QueryActivity(ctx context.Context, boardID string, query types.ActivityQuery) ([]*types.Activity, error) {
	if _, err := e.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	return e.store.QueryActivity(ctx, boardID, query)
}

// ExportActivityLog renders a board's filtered audit trail to JSON or
// CSV. Ticket titles are resolved for the export; activities whose
// ticket has since been deleted carry an empty title.
func (e *Engine) ExportActivityLog(ctx context.Context, boardID string, query types.ActivityQuery, opts export.Options) ([]byte, error) {
	activities, err := e.QueryActivity(ctx, boardID, query)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	for _, activity := range activities {
		if _, seen := titles[activity.TicketID]; seen {
			continue
		}
		ticket, err := e.store.GetTicket(ctx, activity.TicketID)
		if err != nil {
			return nil, err
		}
		if ticket != nil {
			titles[activity.TicketID] = ticket.Title
		} else {
			titles[activity.TicketID] = ""
		}
	}

	return export.ActivityLog(activities, titles, opts)
}
