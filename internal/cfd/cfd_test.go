package cfd

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketkit/ticketkit/internal/storage/sqlite"
	"github.com/ticketkit/ticketkit/internal/types"
	"github.com/ticketkit/ticketkit/internal/workflow"
)

func newTestAnalyzer(t *testing.T) (*Analyzer, *sqlite.SQLiteStorage) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewAnalyzer(store, workflow.NewRegistry(store)), store
}

func seedBoard(t *testing.T, store *sqlite.SQLiteStorage, statuses ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateBoard(ctx, &types.Board{ID: "b1", Name: "Board"}))
	for i, status := range statuses {
		require.NoError(t, store.CreateTicket(ctx, &types.Ticket{
			ID:       string(rune('a' + i)),
			BoardID:  "b1",
			Title:    "Ticket",
			Status:   status,
			Priority: types.PriorityMedium,
		}))
	}
}

func TestTakeSnapshotCountsPerState(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)
	seedBoard(t, store, "backlog", "backlog", "backlog")

	snapshots, err := analyzer.TakeSnapshot(ctx, "b1", "2026-03-01")
	require.NoError(t, err)
	require.Len(t, snapshots, 5, "one row per kanban state")

	counts := map[string]int{}
	for _, snap := range snapshots {
		assert.Equal(t, "2026-03-01", snap.SnapshotDate)
		counts[snap.Status] = snap.Count
	}
	assert.Equal(t, map[string]int{
		"backlog": 3, "todo": 0, "in_progress": 0, "review": 0, "done": 0,
	}, counts)
}

func TestTakeSnapshotDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)
	seedBoard(t, store, "backlog")

	snapshots, err := analyzer.TakeSnapshot(ctx, "b1", "")
	require.NoError(t, err)
	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, today, snapshots[0].SnapshotDate)
}

func TestTakeSnapshotIsIdempotent(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)
	seedBoard(t, store, "backlog", "todo")

	_, err := analyzer.TakeSnapshot(ctx, "b1", "2026-03-01")
	require.NoError(t, err)
	_, err = analyzer.TakeSnapshot(ctx, "b1", "2026-03-01")
	require.NoError(t, err)

	rows, err := store.ListSnapshots(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	assert.Len(t, rows, 5, "re-taking overwrites instead of duplicating")
}

func TestTakeSnapshotUnknownBoard(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t)
	_, err := analyzer.TakeSnapshot(context.Background(), "nope", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCFDDataGroupsAndSorts(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)
	seedBoard(t, store, "backlog", "todo")

	_, err := analyzer.TakeSnapshot(ctx, "b1", "2026-03-02")
	require.NoError(t, err)
	_, err = analyzer.TakeSnapshot(ctx, "b1", "2026-03-01")
	require.NoError(t, err)

	points, err := analyzer.CFDData(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2026-03-01", points[0].Date, "ascending by date")
	assert.Equal(t, "2026-03-02", points[1].Date)
	assert.Equal(t, 1, points[0].Counts["backlog"])
	assert.Equal(t, 1, points[0].Counts["todo"])
	assert.Equal(t, 0, points[0].Counts["done"])
}

func TestCFDDataIsSparse(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)
	seedBoard(t, store)

	// One manual row only; no other dates or statuses exist.
	require.NoError(t, store.UpsertSnapshot(ctx, &types.StatusSnapshot{
		ID: "s1", BoardID: "b1", SnapshotDate: "2026-03-01", Status: "backlog", Count: 2,
	}))

	points, err := analyzer.CFDData(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, map[string]int{"backlog": 2}, points[0].Counts)
}

func TestDatePointMarshalsFlat(t *testing.T) {
	point := DatePoint{Date: "2026-03-01", Counts: map[string]int{"backlog": 3, "done": 1}}

	raw, err := json.Marshal(point)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))
	assert.Equal(t, "2026-03-01", flat["date"])
	assert.Equal(t, 3.0, flat["backlog"])
	assert.Equal(t, 1.0, flat["done"])
}

func TestBackfillSnapshotsStatusChangeDates(t *testing.T) {
	ctx := context.Background()
	analyzer, store := newTestAnalyzer(t)
	seedBoard(t, store, "todo")

	for _, e := range []struct {
		id string
		at time.Time
	}{
		{"a1", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"a2", time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)},
	} {
		require.NoError(t, store.CreateActivity(ctx, &types.Activity{
			ID: e.id, TicketID: "a", Actor: "alice",
			Action: types.ActionStatusChanged, CreatedAt: e.at,
		}))
	}

	dates, err := analyzer.Backfill(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01", "2026-03-03"}, dates)

	// Backfill uses the tickets' current status, so every backfilled
	// date shows the present distribution.
	points, err := analyzer.CFDData(ctx, "b1", types.DateRange{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	for _, point := range points {
		assert.Equal(t, 1, point.Counts["todo"])
		assert.Equal(t, 0, point.Counts["backlog"])
	}
}
