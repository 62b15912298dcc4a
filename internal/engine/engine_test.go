package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/export"
	"github.com/ticketkit/ticketkit/internal/storage/sqlite"
	"github.com/ticketkit/ticketkit/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	eng := New(store, nil)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func makeBoard(t *testing.T, eng *Engine) *types.Board {
	t.Helper()
	board, err := eng.CreateBoard(context.Background(), BoardParams{Name: "Sprint"})
	require.NoError(t, err)
	return board
}

func makeTicket(t *testing.T, eng *Engine, boardID, title string) *types.Ticket {
	t.Helper()
	ticket, err := eng.CreateTicket(context.Background(), boardID, TicketParams{Title: title}, "alice")
	require.NoError(t, err)
	return ticket
}

func TestCreateBoardDefaultsToKanban(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	var created *types.Board
	eng.Bus().Subscribe(events.BoardCreated, func(e events.Event) {
		created = e.Payload.(*types.Board)
	})

	board, err := eng.CreateBoard(ctx, BoardParams{Name: "Sprint"})
	require.NoError(t, err)
	assert.Equal(t, "kanban", board.WorkflowID)
	require.NotNil(t, created)
	assert.Equal(t, board.ID, created.ID)

	_, err = eng.CreateBoard(ctx, BoardParams{Name: "Broken", WorkflowID: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCreateTicketDefaultsToInitialState(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)

	ticket, err := eng.CreateTicket(ctx, board.ID, TicketParams{Title: "Fix login"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "backlog", ticket.Status)
	assert.Equal(t, types.PriorityMedium, ticket.Priority)

	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, types.ActionCreated, activities[0].Action)
	assert.Contains(t, activities[0].Changes, "ticket")
	assert.Equal(t, "alice", activities[0].Actor)
}

func TestCreateTicketRejectsUnknownStatusAndBoard(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)

	_, err := eng.CreateTicket(ctx, board.ID, TicketParams{Title: "X", Status: "archived"}, "alice")
	assert.Error(t, err, "status must be a workflow state")

	_, err = eng.CreateTicket(ctx, "nope", TicketParams{Title: "X"}, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// Kanban scenario: backlog can only move to todo; a direct jump to done
// fails naming the allowed set, and legal moves each produce a
// status_changed activity.
func TestKanbanTransitionScenario(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")
	require.Equal(t, "backlog", ticket.Status)

	_, err := eng.MoveTicket(ctx, ticket.ID, "done", "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
	var transitionErr *types.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, "backlog", transitionErr.From)
	assert.Equal(t, "done", transitionErr.To)
	assert.Equal(t, []string{"todo"}, transitionErr.Allowed)

	// The failed attempt must not mutate state nor leave a trace.
	unchanged, err := eng.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "backlog", unchanged.Status)
	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 1, "only the created activity")

	_, err = eng.MoveTicket(ctx, ticket.ID, "todo", "alice")
	require.NoError(t, err)
	moved, err := eng.MoveTicket(ctx, ticket.ID, "in_progress", "alice")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", moved.Status)

	activities, err = eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	statusChanges := 0
	for _, activity := range activities {
		if activity.Action == types.ActionStatusChanged {
			statusChanges++
		}
	}
	assert.Equal(t, 2, statusChanges)
}

func TestUpdateTicketDiffAndEvent(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	var payload events.TicketUpdatedPayload
	updatedEvents := 0
	eng.Bus().Subscribe(events.TicketUpdated, func(e events.Event) {
		payload = e.Payload.(events.TicketUpdatedPayload)
		updatedEvents++
	})

	updated, err := eng.UpdateTicket(ctx, ticket.ID, map[string]any{
		"title":    "Fix login flow",
		"priority": "high",
	}, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Fix login flow", updated.Title)

	require.Equal(t, 1, updatedEvents)
	require.Len(t, payload.Changes, 2)
	assert.Equal(t, "Fix login", payload.Changes["title"].Old)
	assert.Equal(t, "Fix login flow", payload.Changes["title"].New)

	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, types.ActionUpdated, activities[0].Action)
	assert.Len(t, activities[0].Changes, 2,
		"changes holds every and only the differing fields")
}

func TestNoOpUpdateProducesNothing(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	eventCount := 0
	eng.Bus().Subscribe(events.TicketUpdated, func(events.Event) { eventCount++ })

	_, err := eng.UpdateTicket(ctx, ticket.ID, map[string]any{"title": "Fix login"}, "alice")
	require.NoError(t, err)

	assert.Zero(t, eventCount)
	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 1, "created only; the no-op added nothing")
}

func TestReorderedLabelsAreNoOp(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket, err := eng.CreateTicket(ctx, board.ID, TicketParams{
		Title:  "Fix login",
		Labels: []string{"bug", "auth"},
	}, "alice")
	require.NoError(t, err)

	_, err = eng.UpdateTicket(ctx, ticket.ID, map[string]any{
		"labels": []string{"auth", "bug"},
	}, "alice")
	require.NoError(t, err)

	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}

func TestAssignTicketDoubleRecord(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	_, err := eng.AssignTicket(ctx, ticket.ID, []string{"alice", "bob"}, "carol")
	require.NoError(t, err)

	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 3, "created + updated diff + assigned")

	actions := map[types.ActivityAction]bool{}
	for _, activity := range activities {
		actions[activity.Action] = true
	}
	assert.True(t, actions[types.ActionUpdated])
	assert.True(t, actions[types.ActionAssigned])
}

func TestDeleteTicketEmitsEvent(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	var payload events.TicketDeletedPayload
	eng.Bus().Subscribe(events.TicketDeleted, func(e events.Event) {
		payload = e.Payload.(events.TicketDeletedPayload)
	})

	require.NoError(t, eng.DeleteTicket(ctx, ticket.ID, "alice"))
	assert.Equal(t, ticket.ID, payload.ID)
	require.NotNil(t, payload.Ticket)

	err := eng.DeleteTicket(ctx, ticket.ID, "alice")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	t1 := makeTicket(t, eng, board.ID, "One")
	t2 := makeTicket(t, eng, board.ID, "Two")

	results := eng.BulkUpdateTickets(ctx, []string{t1.ID, "missing", t2.ID},
		map[string]any{"priority": "urgent"}, "alice")

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, types.ErrNotFound)
	assert.NoError(t, results[2].Err, "failure does not stop later tickets")
	assert.Equal(t, types.PriorityUrgent, results[2].Ticket.Priority)
}

// addComment writes a comment and a commented activity; replyToComment
// writes the comment only.
func TestCommentActivityAsymmetry(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	comment, err := eng.AddComment(ctx, ticket.ID, "alice", "Looks bad")
	require.NoError(t, err)

	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, types.ActionCommented, activities[0].Action)
	assert.Equal(t, comment.ID, activities[0].Changes["comment_id"])

	reply, err := eng.ReplyToComment(ctx, ticket.ID, comment.ID, "bob", "Agreed")
	require.NoError(t, err)
	assert.Equal(t, comment.ID, reply.ParentID)

	activities, err = eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 2, "reply adds no activity")

	comments, err := eng.ListComments(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestCreateSubtaskInheritsBoard(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	parent := makeTicket(t, eng, board.ID, "Epic")

	sub, err := eng.CreateSubtask(ctx, parent.ID, TicketParams{Title: "Step one"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, board.ID, sub.BoardID)
	assert.Equal(t, parent.ID, sub.ParentID)

	subtasks, err := eng.Subtasks(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, sub.ID, subtasks[0].ID)

	_, err = eng.CreateSubtask(ctx, "missing", TicketParams{Title: "Orphan"}, "alice")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestKanbanViewPartitionsByState(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	a := makeTicket(t, eng, board.ID, "A")
	makeTicket(t, eng, board.ID, "B")
	_, err := eng.MoveTicket(ctx, a.ID, "todo", "alice")
	require.NoError(t, err)

	view, err := eng.KanbanView(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, view.Columns, 5, "every workflow state gets a column")
	assert.Len(t, view.Columns["backlog"], 1)
	assert.Len(t, view.Columns["todo"], 1)
	assert.Empty(t, view.Columns["done"])
}

func TestBacklogReturnsInitialState(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	makeTicket(t, eng, board.ID, "A")
	b := makeTicket(t, eng, board.ID, "B")
	_, err := eng.MoveTicket(ctx, b.ID, "todo", "alice")
	require.NoError(t, err)

	backlog, err := eng.Backlog(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "A", backlog[0].Title)
}

// Search scenario: "status:in_progress bug" matches tickets that are
// in_progress and mention bug in title or description.
func TestSearchScenario(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)

	bug, err := eng.CreateTicket(ctx, board.ID, TicketParams{Title: "Login bug"}, "alice")
	require.NoError(t, err)
	_, err = eng.MoveTicket(ctx, bug.ID, "todo", "alice")
	require.NoError(t, err)
	_, err = eng.MoveTicket(ctx, bug.ID, "in_progress", "alice")
	require.NoError(t, err)

	otherBug, err := eng.CreateTicket(ctx, board.ID, TicketParams{Title: "Other bug"}, "alice")
	require.NoError(t, err)

	results, err := eng.Search(ctx, board.ID, "status:in_progress bug")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, bug.ID, results[0].ID)
	assert.NotEqual(t, otherBug.ID, results[0].ID)
}

// Snapshot scenario: three backlog tickets yield five rows, backlog=3,
// everything else 0.
func TestSnapshotScenario(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	for _, title := range []string{"A", "B", "C"} {
		makeTicket(t, eng, board.ID, title)
	}

	snapshots, err := eng.TakeSnapshot(ctx, board.ID, "")
	require.NoError(t, err)
	require.Len(t, snapshots, 5)

	counts := map[string]int{}
	for _, snap := range snapshots {
		counts[snap.Status] = snap.Count
	}
	assert.Equal(t, 3, counts["backlog"])
	for _, status := range []string{"todo", "in_progress", "review", "done"} {
		assert.Zero(t, counts[status], status)
	}
}

func TestAttachmentLifecycle(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	att, err := eng.AddAttachment(ctx, ticket.ID, AttachmentParams{
		Filename:         "abc123.pdf",
		OriginalFilename: "spec.pdf",
		MimeType:         "application/pdf",
		SizeBytes:        2048,
		StoragePath:      "/data/abc123.pdf",
	}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", att.UploadedBy)

	require.NoError(t, eng.DeleteAttachment(ctx, att.ID, "bob"))

	activities, err := eng.Activity(ctx, ticket.ID, 0)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, types.ActionAttachmentDeleted, activities[0].Action)
	assert.Equal(t, "spec.pdf", activities[0].Changes["filename"])
	assert.Equal(t, types.ActionAttachmentAdded, activities[1].Action)
}

func TestExportActivityLogCSV(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")
	_, err := eng.MoveTicket(ctx, ticket.ID, "todo", "alice")
	require.NoError(t, err)

	raw, err := eng.ExportActivityLog(ctx, board.ID, types.ActivityQuery{},
		export.Options{Format: export.FormatCSV})
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, "timestamp,ticket_id,ticket_title,actor,action,details")
	assert.Contains(t, out, `"Fix login"`)
	assert.Contains(t, out, `"backlog → todo"`)
}

func TestExportImportBoardRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	parent := makeTicket(t, eng, board.ID, "Epic")
	_, err := eng.CreateSubtask(ctx, parent.ID, TicketParams{Title: "Step"}, "alice")
	require.NoError(t, err)

	bundle, err := eng.ExportBoard(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", bundle.Version)
	require.Len(t, bundle.Tickets, 2)

	imported, err := eng.ImportBoard(ctx, bundle, "carol")
	require.NoError(t, err)
	assert.NotEqual(t, board.ID, imported.ID, "import mints fresh IDs")

	tickets, err := eng.ListTickets(ctx, types.TicketQuery{BoardID: imported.ID})
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	var epic, step *types.Ticket
	for _, ticket := range tickets {
		switch ticket.Title {
		case "Epic":
			epic = ticket
		case "Step":
			step = ticket
		}
	}
	require.NotNil(t, epic)
	require.NotNil(t, step)
	assert.Equal(t, epic.ID, step.ParentID, "subtask structure is remapped")
}

func TestEventOrderingAuditBeforeEmission(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	board := makeBoard(t, eng)
	ticket := makeTicket(t, eng, board.ID, "Fix login")

	// By the time the event fires, the audit record must be readable.
	var auditLen int
	eng.Bus().Subscribe(events.TicketUpdated, func(events.Event) {
		activities, err := eng.Activity(ctx, ticket.ID, 0)
		require.NoError(t, err)
		auditLen = len(activities)
	})

	_, err := eng.MoveTicket(ctx, ticket.ID, "todo", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, auditLen, "created + status_changed visible inside the handler")
}
