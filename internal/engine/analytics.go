package engine

import (
	"context"

	"github.com/ticketkit/ticketkit/internal/cfd"
	"github.com/ticketkit/ticketkit/internal/types"
)

// TakeSnapshot records per-status ticket counts for the board, dated
// date (YYYY-MM-DD; empty means today UTC). Idempotent per date.
func (e *Engine) TakeSnapshot(ctx context.Context, boardID, date string) ([]*types.StatusSnapshot, error) {
	return e.analyzer.TakeSnapshot(ctx, boardID, date)
}

// CFDData returns cumulative flow diagram points for the board within
// the inclusive date range, ascending by date.
func (e *Engine) CFDData(ctx context.Context, boardID string, rng types.DateRange) ([]cfd.DatePoint, error) {
	return e.analyzer.CFDData(ctx, boardID, rng)
}

// BackfillSnapshots takes a snapshot for each date in the range on
// which a status change occurred, returning the dates processed. The
// counts use tickets' current statuses, so the result approximates
// rather than replays history; see the cfd package for the details.
func (e *Engine) BackfillSnapshots(ctx context.Context, boardID string, rng types.DateRange) ([]string, error) {
	return e.analyzer.Backfill(ctx, boardID, rng)
}
