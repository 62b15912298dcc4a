// Package cfd builds cumulative flow diagram data from daily status
// snapshots. A snapshot records how many of a board's tickets sat in
// each workflow state on a given date; stacking those counts over a
// date range is the CFD.
package cfd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/types"
	"github.com/ticketkit/ticketkit/internal/workflow"
)

// Store is the slice of the storage contract the analyzer needs.
type Store interface {
	GetBoard(ctx context.Context, id string) (*types.Board, error)
	CountTicketsByStatus(ctx context.Context, boardID, status string) (int, error)
	UpsertSnapshot(ctx context.Context, snap *types.StatusSnapshot) error
	ListSnapshots(ctx context.Context, boardID string, rng types.DateRange) ([]*types.StatusSnapshot, error)
	StatusChangeDates(ctx context.Context, boardID string, rng types.DateRange) ([]string, error)
}

// Analyzer takes and aggregates per-status snapshots for boards.
type Analyzer struct {
	store     Store
	workflows *workflow.Registry
}

// NewAnalyzer creates an analyzer over the given store and workflow
// registry.
func NewAnalyzer(store Store, workflows *workflow.Registry) *Analyzer {
	return &Analyzer{store: store, workflows: workflows}
}

// TakeSnapshot records one snapshot row per workflow state for the
// board, dated date (YYYY-MM-DD; empty means today UTC). Re-running
// for the same date overwrites counts rather than duplicating rows.
func (a *Analyzer) TakeSnapshot(ctx context.Context, boardID, date string) ([]*types.StatusSnapshot, error) {
	board, err := a.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, types.NotFoundError("board", boardID)
	}

	wf, err := a.workflows.Resolve(ctx, board.WorkflowID)
	if err != nil {
		return nil, err
	}

	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	var snapshots []*types.StatusSnapshot
	for _, status := range wf.States {
		count, err := a.store.CountTicketsByStatus(ctx, boardID, status)
		if err != nil {
			return nil, err
		}
		snap := &types.StatusSnapshot{
			ID:           uuid.NewString(),
			BoardID:      boardID,
			SnapshotDate: date,
			Status:       status,
			Count:        count,
		}
		if err := a.store.UpsertSnapshot(ctx, snap); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// DatePoint is one day's status counts. It serializes flat, e.g.
// {"date":"2026-03-01","backlog":3,"done":1}, the shape charting
// libraries expect for stacked area series.
type DatePoint struct {
	Date   string
	Counts map[string]int
}

// MarshalJSON flattens the point into a single object keyed by date
// plus one key per status.
func (p DatePoint) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Counts)+1)
	flat["date"] = p.Date
	for status, count := range p.Counts {
		flat[status] = count
	}
	return json.Marshal(flat)
}

// CFDData aggregates a board's snapshots in the date range into one
// point per date, ascending. Dates with no snapshot are absent rather
// than zero-filled.
func (a *Analyzer) CFDData(ctx context.Context, boardID string, rng types.DateRange) ([]DatePoint, error) {
	board, err := a.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, types.NotFoundError("board", boardID)
	}

	snapshots, err := a.store.ListSnapshots(ctx, boardID, rng)
	if err != nil {
		return nil, err
	}

	var points []DatePoint
	byDate := map[string]int{}
	for _, snap := range snapshots {
		idx, seen := byDate[snap.SnapshotDate]
		if !seen {
			idx = len(points)
			byDate[snap.SnapshotDate] = idx
			points = append(points, DatePoint{
				Date:   snap.SnapshotDate,
				Counts: map[string]int{},
			})
		}
		points[idx].Counts[snap.Status] = snap.Count
	}
	return points, nil
}

// Backfill takes a snapshot for every date in the range on which a
// status change was recorded, ascending, and returns the dates
// processed.
//
// Counts reflect tickets' current statuses, not their statuses on the
// historical date, so backfilled days approximate the true flow. Only
// a replay of the status_changed audit trail could reconstruct the
// exact historical counts.
func (a *Analyzer) Backfill(ctx context.Context, boardID string, rng types.DateRange) ([]string, error) {
	board, err := a.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, types.NotFoundError("board", boardID)
	}

	dates, err := a.store.StatusChangeDates(ctx, boardID, rng)
	if err != nil {
		return nil, err
	}
	for _, date := range dates {
		if _, err := a.TakeSnapshot(ctx, boardID, date); err != nil {
			return nil, err
		}
	}
	return dates, nil
}
