package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketkit/ticketkit/internal/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func makeBoard(t *testing.T, store *SQLiteStorage, id string) *types.Board {
	t.Helper()
	board := &types.Board{ID: id, Name: "Board " + id}
	require.NoError(t, store.CreateBoard(context.Background(), board))
	return board
}

func makeTicket(t *testing.T, store *SQLiteStorage, id, boardID, status string) *types.Ticket {
	t.Helper()
	ticket := &types.Ticket{
		ID:       id,
		BoardID:  boardID,
		Title:    "Ticket " + id,
		Status:   status,
		Priority: types.PriorityMedium,
	}
	require.NoError(t, store.CreateTicket(context.Background(), ticket))
	return ticket
}

func TestBoardCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	board := &types.Board{ID: "b1", Name: "Sprint 12", Description: "March sprint"}
	require.NoError(t, store.CreateBoard(ctx, board))
	assert.Equal(t, "kanban", board.WorkflowID, "workflow defaults to kanban")

	got, err := store.GetBoard(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sprint 12", got.Name)

	missing, err := store.GetBoard(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing, "absent board is (nil, nil)")

	updated, err := store.UpdateBoard(ctx, "b1", map[string]any{"name": "Sprint 13"})
	require.NoError(t, err)
	assert.Equal(t, "Sprint 13", updated.Name)

	_, err = store.UpdateBoard(ctx, "b1", map[string]any{"id": "b2"})
	assert.Error(t, err, "unknown update fields are rejected")

	require.NoError(t, store.DeleteBoard(ctx, "b1"))
	gone, err := store.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeleteBoardCascades(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")
	require.NoError(t, store.CreateComment(ctx, &types.Comment{
		ID: "c1", TicketID: "t1", Author: "alice", Content: "hi",
	}))
	require.NoError(t, store.CreateActivity(ctx, &types.Activity{
		ID: "a1", TicketID: "t1", Actor: "alice", Action: types.ActionCreated,
	}))

	require.NoError(t, store.DeleteBoard(ctx, "b1"))

	ticket, err := store.GetTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, ticket)

	comments, err := store.ListComments(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, comments)

	activities, err := store.ListActivities(ctx, "t1", 10)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestTicketRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")

	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ticket := &types.Ticket{
		ID:           "t1",
		BoardID:      "b1",
		Title:        "Fix login",
		Description:  "500 on submit",
		Status:       "backlog",
		Priority:     types.PriorityHigh,
		Labels:       []string{"bug", "auth"},
		Assignees:    []string{"alice"},
		CustomFields: map[string]any{"estimate": 5.0},
		Position:     2,
		DueDate:      &due,
	}
	require.NoError(t, store.CreateTicket(ctx, ticket))

	got, err := store.GetTicket(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Fix login", got.Title)
	assert.Equal(t, types.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"bug", "auth"}, got.Labels)
	assert.Equal(t, []string{"alice"}, got.Assignees)
	assert.Equal(t, map[string]any{"estimate": 5.0}, got.CustomFields)
	assert.Equal(t, 2, got.Position)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.Empty(t, got.ParentID)
}

func TestCreateTicketValidates(t *testing.T) {
	store := newTestStorage(t)
	makeBoard(t, store, "b1")

	err := store.CreateTicket(context.Background(), &types.Ticket{
		ID: "t1", BoardID: "b1", Priority: types.PriorityLow,
	})
	assert.Error(t, err, "missing title")
}

func TestListTicketsFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeBoard(t, store, "b2")

	bug := &types.Ticket{
		ID: "t1", BoardID: "b1", Title: "Login bug", Status: "backlog",
		Priority: types.PriorityHigh, Labels: []string{"bug"}, Assignees: []string{"alice"},
	}
	feature := &types.Ticket{
		ID: "t2", BoardID: "b1", Title: "Dark mode", Status: "todo",
		Priority: types.PriorityLow, Assignees: []string{"bob"},
	}
	sub := &types.Ticket{
		ID: "t3", BoardID: "b1", Title: "Login bug subtask", Status: "backlog",
		Priority: types.PriorityMedium, ParentID: "t1",
	}
	other := &types.Ticket{
		ID: "t4", BoardID: "b2", Title: "Other board", Status: "backlog",
		Priority: types.PriorityMedium,
	}
	for _, ticket := range []*types.Ticket{bug, feature, sub, other} {
		require.NoError(t, store.CreateTicket(ctx, ticket))
	}

	ids := func(tickets []*types.Ticket) []string {
		out := make([]string, len(tickets))
		for i, ticket := range tickets {
			out[i] = ticket.ID
		}
		return out
	}

	got, err := store.ListTickets(ctx, types.TicketQuery{BoardID: "b1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2", "t3"}, ids(got))

	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Status: "backlog"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t3"}, ids(got))

	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(got))

	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Assignee: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(got))

	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Label: "bug"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(got))

	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Search: "login"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t3"}, ids(got))

	// Parent filter is tri-state.
	parent := "t1"
	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", ParentID: &parent})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, ids(got))

	topLevel := ""
	got, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", ParentID: &topLevel})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"t1", "t2"}, ids(got))
}

func TestListTicketsPagination(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")

	for i, id := range []string{"t1", "t2", "t3"} {
		ticket := &types.Ticket{
			ID: id, BoardID: "b1", Title: id, Status: "backlog",
			Priority: types.PriorityMedium, Position: i,
		}
		require.NoError(t, store.CreateTicket(ctx, ticket))
	}

	page, err := store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "t1", page[0].ID, "position ascending")

	page, err = store.ListTickets(ctx, types.TicketQuery{BoardID: "b1", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "t3", page[0].ID)
}

func TestUpdateTicket(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")

	updated, err := store.UpdateTicket(ctx, "t1", map[string]any{
		"status": "todo",
		"labels": []string{"bug"},
	})
	require.NoError(t, err)
	assert.Equal(t, "todo", updated.Status)
	assert.Equal(t, []string{"bug"}, updated.Labels)

	_, err = store.UpdateTicket(ctx, "t1", map[string]any{"board_id": "b2"})
	assert.Error(t, err, "board_id is not updatable")

	same, err := store.UpdateTicket(ctx, "t1", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, same.UpdatedAt, "empty update does not touch updated_at")
}

func TestBulkUpdateTickets(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")
	makeTicket(t, store, "t2", "b1", "backlog")

	require.NoError(t, store.BulkUpdateTickets(ctx, []string{"t1", "t2"}, map[string]any{"priority": "urgent"}))

	for _, id := range []string{"t1", "t2"} {
		ticket, err := store.GetTicket(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.PriorityUrgent, ticket.Priority)
	}
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")

	base := time.Now().UTC()
	for i, id := range []string{"c1", "c2", "c3"} {
		comment := &types.Comment{
			ID: id, TicketID: "t1", Author: "alice", Content: id,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.CreateComment(ctx, comment))
	}

	comments, err := store.ListComments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "c3", comments[2].ID)

	require.NoError(t, store.DeleteComment(ctx, "c2"))
	comments, err = store.ListComments(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestActivitiesNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")

	base := time.Now().UTC()
	for i, id := range []string{"a1", "a2", "a3"} {
		activity := &types.Activity{
			ID: id, TicketID: "t1", Actor: "alice", Action: types.ActionUpdated,
			Changes:   map[string]any{"n": float64(i)},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.CreateActivity(ctx, activity))
	}

	activities, err := store.ListActivities(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "a3", activities[0].ID)
	assert.Equal(t, map[string]any{"n": 2.0}, activities[0].Changes)
}

func TestQueryActivityFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")
	makeTicket(t, store, "t2", "b1", "backlog")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []struct {
		id     string
		ticket string
		actor  string
		action types.ActivityAction
		at     time.Time
	}{
		{"a1", "t1", "alice", types.ActionCreated, base},
		{"a2", "t1", "bob", types.ActionStatusChanged, base.Add(time.Hour)},
		{"a3", "t2", "alice", types.ActionStatusChanged, base.Add(48 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, store.CreateActivity(ctx, &types.Activity{
			ID: e.id, TicketID: e.ticket, Actor: e.actor, Action: e.action, CreatedAt: e.at,
		}))
	}

	all, err := store.QueryActivity(ctx, "b1", types.ActivityQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].ID, "newest first")

	byActor, err := store.QueryActivity(ctx, "b1", types.ActivityQuery{Actors: []string{"bob"}})
	require.NoError(t, err)
	require.Len(t, byActor, 1)
	assert.Equal(t, "a2", byActor[0].ID)

	byAction, err := store.QueryActivity(ctx, "b1", types.ActivityQuery{
		Actions: []types.ActivityAction{types.ActionStatusChanged},
	})
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	from := base.Add(30 * time.Minute)
	to := base.Add(2 * time.Hour)
	inRange, err := store.QueryActivity(ctx, "b1", types.ActivityQuery{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, "a2", inRange[0].ID)

	limited, err := store.QueryActivity(ctx, "b1", types.ActivityQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestWorkflowsSeededAndPersisted(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	kanban, err := store.GetWorkflow(ctx, "kanban")
	require.NoError(t, err)
	require.NotNil(t, kanban, "built-ins are seeded at init")
	assert.Equal(t, []string{"backlog", "todo", "in_progress", "review", "done"}, kanban.States)

	missing, err := store.GetWorkflow(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	custom := &types.Workflow{
		ID:          "review-only",
		Name:        "Review Only",
		States:      []string{"draft", "reviewed"},
		Transitions: map[string][]string{"draft": {"reviewed"}, "reviewed": {}},
	}
	require.NoError(t, store.CreateWorkflow(ctx, custom))

	got, err := store.GetWorkflow(ctx, "review-only")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, custom.Transitions, got.Transitions)
}

func TestAttachmentCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")

	att := &types.Attachment{
		ID: "at1", TicketID: "t1", Filename: "abc123.pdf",
		OriginalFilename: "spec.pdf", MimeType: "application/pdf",
		SizeBytes: 2048, StoragePath: "/data/abc123.pdf", UploadedBy: "alice",
	}
	require.NoError(t, store.CreateAttachment(ctx, att))

	got, err := store.GetAttachment(ctx, "at1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "spec.pdf", got.OriginalFilename)
	assert.Equal(t, int64(2048), got.SizeBytes)

	list, err := store.ListAttachments(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteAttachment(ctx, "at1"))
	gone, err := store.GetAttachment(ctx, "at1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSnapshotUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")

	snap := &types.StatusSnapshot{
		ID: "s1", BoardID: "b1", SnapshotDate: "2026-03-01", Status: "backlog", Count: 3,
	}
	require.NoError(t, store.UpsertSnapshot(ctx, snap))

	// Same (board, date, status) with a new count overwrites.
	again := &types.StatusSnapshot{
		ID: "s2", BoardID: "b1", SnapshotDate: "2026-03-01", Status: "backlog", Count: 5,
	}
	require.NoError(t, store.UpsertSnapshot(ctx, again))

	snapshots, err := store.ListSnapshots(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 5, snapshots[0].Count)
}

func TestListSnapshotsRangeAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")

	rows := []struct {
		id, date, status string
	}{
		{"s1", "2026-03-02", "todo"},
		{"s2", "2026-03-01", "todo"},
		{"s3", "2026-03-02", "backlog"},
		{"s4", "2026-03-05", "backlog"},
	}
	for _, r := range rows {
		require.NoError(t, store.UpsertSnapshot(ctx, &types.StatusSnapshot{
			ID: r.id, BoardID: "b1", SnapshotDate: r.date, Status: r.status, Count: 1,
		}))
	}

	snapshots, err := store.ListSnapshots(ctx, "b1", types.DateRange{From: "2026-03-01", To: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, snapshots, 3)
	assert.Equal(t, "2026-03-01", snapshots[0].SnapshotDate)
	assert.Equal(t, "backlog", snapshots[1].Status, "status ascending within a date")
	assert.Equal(t, "todo", snapshots[2].Status)
}

func TestStatusChangeDates(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	makeBoard(t, store, "b1")
	makeTicket(t, store, "t1", "b1", "backlog")

	entries := []struct {
		id     string
		action types.ActivityAction
		at     time.Time
	}{
		{"a1", types.ActionStatusChanged, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"a2", types.ActionStatusChanged, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)},
		{"a3", types.ActionStatusChanged, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)},
		{"a4", types.ActionUpdated, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
	}
	for _, e := range entries {
		require.NoError(t, store.CreateActivity(ctx, &types.Activity{
			ID: e.id, TicketID: "t1", Actor: "alice", Action: e.action, CreatedAt: e.at,
		}))
	}

	dates, err := store.StatusChangeDates(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01", "2026-03-04"}, dates,
		"distinct dates of status changes only, ascending")

	dates, err = store.StatusChangeDates(ctx, "b1", types.DateRange{From: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-04"}, dates)
}
