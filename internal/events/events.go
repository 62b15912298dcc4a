// Package events provides the in-process publish/subscribe bus that
// notifies listeners of board, ticket, comment, and attachment domain
// events. Dispatch is synchronous and in subscription order; emission
// happens only after the triggering operation's audit write succeeds.
package events

import (
	"github.com/ticketkit/ticketkit/internal/diff"
	"github.com/ticketkit/ticketkit/internal/types"
)

// Name identifies a domain event.
type Name string

const (
	BoardCreated Name = "board:created"
	BoardUpdated Name = "board:updated"
	BoardDeleted Name = "board:deleted"

	TicketCreated Name = "ticket:created"
	TicketUpdated Name = "ticket:updated"
	TicketDeleted Name = "ticket:deleted"

	CommentCreated Name = "comment:created"

	AttachmentCreated Name = "attachment:created"
	AttachmentDeleted Name = "attachment:deleted"
)

// Event is a published domain event. Payload holds the event-specific
// data: *types.Board, *types.Ticket, *types.Comment, *types.Attachment
// for created/updated events, or one of the payload structs below.
type Event struct {
	Name    Name
	Payload any
}

// TicketUpdatedPayload accompanies ticket:updated: the post-update
// ticket plus the field-level diff that triggered the event.
type TicketUpdatedPayload struct {
	Ticket  *types.Ticket
	Changes map[string]diff.Change
}

// TicketDeletedPayload accompanies ticket:deleted.
type TicketDeletedPayload struct {
	ID     string
	Ticket *types.Ticket
}

// BoardDeletedPayload accompanies board:deleted.
type BoardDeletedPayload struct {
	ID string
}

// AttachmentDeletedPayload accompanies attachment:deleted.
type AttachmentDeletedPayload struct {
	ID         string
	Attachment *types.Attachment
}
