// Package engine is the ticket orchestrator: the façade that enforces
// workflow legality, coordinates storage with audit activity writes,
// and emits domain events. Within one operation the order is fixed:
// storage write, then diff, then audit write, then event emission.
// Events fire only after the audit write succeeds.
//
// The engine issues no multi-statement transactions and acquires no
// locks; correctness under concurrent callers rests on the storage
// backend's isolation.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/ticketkit/ticketkit/internal/cfd"
	"github.com/ticketkit/ticketkit/internal/events"
	"github.com/ticketkit/ticketkit/internal/storage"
	"github.com/ticketkit/ticketkit/internal/types"
	"github.com/ticketkit/ticketkit/internal/workflow"
)

// Engine orchestrates boards, tickets, comments, and attachments over
// a storage backend.
type Engine struct {
	store     storage.Storage
	workflows *workflow.Registry
	bus       *events.Bus
	analyzer  *cfd.Analyzer
	logger    *zap.Logger
}

// New creates an engine over the given storage backend. A nil logger
// disables logging.
func New(store storage.Storage, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	workflows := workflow.NewRegistry(store)
	return &Engine{
		store:     store,
		workflows: workflows,
		bus:       events.NewBus(logger),
		analyzer:  cfd.NewAnalyzer(store, workflows),
		logger:    logger,
	}
}

// Bus exposes the event bus for subscribing to domain events.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Workflow resolves a workflow by ID, built-in or persisted.
func (e *Engine) Workflow(ctx context.Context, id string) (*types.Workflow, error) {
	return e.workflows.Resolve(ctx, id)
}

// RegisterWorkflow validates and persists a custom workflow.
func (e *Engine) RegisterWorkflow(ctx context.Context, wf *types.Workflow) error {
	return e.workflows.Register(ctx, wf)
}

// recordActivity appends one audit record for a ticket mutation.
func (e *Engine) recordActivity(ctx context.Context, ticketID, actor string, action types.ActivityAction, changes map[string]any) error {
	return e.store.CreateActivity(ctx, &types.Activity{
		ID:       uuid.NewString(),
		TicketID: ticketID,
		Actor:    actor,
		Action:   action,
		Changes:  changes,
	})
}

// Close releases the underlying storage backend.
func (e *Engine) Close() error {
	return e.store.Close()
}
