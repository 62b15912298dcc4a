package types

import (
	"fmt"
	"strings"
	"time"
)

// Board is a named collection of tickets governed by one workflow.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	WorkflowID  string    `json:"workflow_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the board has valid field values
func (b *Board) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Workflow is a named state machine assigned to boards. States are
// ordered; States[0] is the initial state for new tickets. Transitions
// maps each state to the set of states it may move to. A state with an
// empty transition set is terminal.
type Workflow struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	States      []string            `json:"states"`
	Transitions map[string][]string `json:"transitions"`
}

// Validate checks that the workflow declares at least one state and
// that every transition source and target is a declared state.
func (w *Workflow) Validate() error {
	if len(w.States) == 0 {
		return &InvalidWorkflowError{ID: w.ID, Reason: "workflow must declare at least one state"}
	}
	declared := make(map[string]bool, len(w.States))
	for _, s := range w.States {
		declared[s] = true
	}
	for from, targets := range w.Transitions {
		if !declared[from] {
			return &InvalidWorkflowError{ID: w.ID, Reason: fmt.Sprintf("transition source %q is not a declared state", from)}
		}
		for _, to := range targets {
			if !declared[to] {
				return &InvalidWorkflowError{ID: w.ID, Reason: fmt.Sprintf("transition target %q is not a declared state", to)}
			}
		}
	}
	return nil
}

// InitialState returns the first declared state, the default status for
// newly created tickets.
func (w *Workflow) InitialState() string {
	if len(w.States) == 0 {
		return ""
	}
	return w.States[0]
}

// HasState reports whether s is one of the workflow's declared states.
func (w *Workflow) HasState(s string) bool {
	for _, state := range w.States {
		if state == s {
			return true
		}
	}
	return false
}

// AllowedFrom returns the legal target states from the given state.
// Returns an empty slice for terminal or unknown states.
func (w *Workflow) AllowedFrom(state string) []string {
	return w.Transitions[state]
}

// CanTransition checks if a move from one state to another is legal.
func (w *Workflow) CanTransition(from, to string) bool {
	for _, allowed := range w.Transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state has no outgoing transitions.
func (w *Workflow) IsTerminal(state string) bool {
	return len(w.Transitions[state]) == 0
}

// Priority categorizes ticket urgency
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Ticket represents a unit of work on a board. Status is constrained to
// the owning board's workflow states. A ticket with ParentID set is a
// subtask of another ticket.
type Ticket struct {
	ID           string         `json:"id"`
	BoardID      string         `json:"board_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	Priority     Priority       `json:"priority"`
	Labels       []string       `json:"labels"`
	Assignees    []string       `json:"assignees"`
	ParentID     string         `json:"parent_id,omitempty"`
	CustomFields map[string]any `json:"custom_fields"`
	Position     int            `json:"position"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Validate checks if the ticket has valid field values
func (t *Ticket) Validate() error {
	if len(t.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if t.BoardID == "" {
		return fmt.Errorf("board_id is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	return nil
}

// Comment is a user-authored note on a ticket. ParentID links threaded
// replies. Comments are created and deleted, never updated.
type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityAction categorizes audit trail entries
type ActivityAction string

const (
	ActionCreated           ActivityAction = "created"
	ActionUpdated           ActivityAction = "updated"
	ActionStatusChanged     ActivityAction = "status_changed"
	ActionAssigned          ActivityAction = "assigned"
	ActionCommented         ActivityAction = "commented"
	ActionAttachmentAdded   ActivityAction = "attachment_added"
	ActionAttachmentDeleted ActivityAction = "attachment_deleted"
)

// IsValid checks if the action value is valid
func (a ActivityAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionStatusChanged, ActionAssigned,
		ActionCommented, ActionAttachmentAdded, ActionAttachmentDeleted:
		return true
	}
	return false
}

// Activity is an immutable audit record of a single ticket mutation.
// Changes holds a field→{old,new} map for updated/status_changed
// entries, or an action-specific payload (comment_id, assignees,
// attachment metadata, the full created snapshot) for the rest.
type Activity struct {
	ID        string         `json:"id"`
	TicketID  string         `json:"ticket_id"`
	Actor     string         `json:"actor"`
	Action    ActivityAction `json:"action"`
	Changes   map[string]any `json:"changes"`
	CreatedAt time.Time      `json:"created_at"`
}

// Attachment is metadata for a file attached to a ticket. The bytes
// themselves live at StoragePath; the engine only tracks the record.
type Attachment struct {
	ID               string    `json:"id"`
	TicketID         string    `json:"ticket_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	StoragePath      string    `json:"storage_path"`
	UploadedBy       string    `json:"uploaded_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// StatusSnapshot is a per-date per-status ticket count for a board,
// the raw material for cumulative flow diagrams. SnapshotDate is a
// calendar date (YYYY-MM-DD, no time component). Unique per
// (board_id, snapshot_date, status); re-taking a snapshot for an
// existing date overwrites the count.
type StatusSnapshot struct {
	ID           string `json:"id"`
	BoardID      string `json:"board_id"`
	SnapshotDate string `json:"snapshot_date"`
	Status       string `json:"status"`
	Count        int    `json:"count"`
}

// TicketQuery filters ticket listing queries. Zero-valued fields are
// ignored. ParentID is tri-state: nil means no parent filtering, a
// pointer to "" selects top-level tickets only, and a pointer to a
// ticket ID selects that ticket's subtasks.
type TicketQuery struct {
	BoardID  string
	Status   string
	Priority string
	Assignee string
	Label    string
	ParentID *string
	Search   string
	Limit    int
	Offset   int
}

// ActivityQuery filters board-scoped activity queries.
type ActivityQuery struct {
	From    *time.Time
	To      *time.Time
	Actors  []string
	Actions []ActivityAction
	Limit   int
}

// DateRange bounds snapshot queries by calendar date (YYYY-MM-DD,
// inclusive). Empty strings leave the corresponding bound open.
type DateRange struct {
	From string
	To   string
}
