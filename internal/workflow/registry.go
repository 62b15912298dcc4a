// Package workflow holds the registry of named state machines that
// govern ticket status transitions. Built-in workflows (kanban, scrum,
// support, simple) are seeded at construction and resolvable with zero
// configuration; custom workflows are persisted through the storage
// contract.
package workflow

import (
	"context"

	"github.com/ticketkit/ticketkit/internal/types"
)

// Store is the slice of the storage contract the registry consumes.
type Store interface {
	GetWorkflow(ctx context.Context, id string) (*types.Workflow, error)
	CreateWorkflow(ctx context.Context, wf *types.Workflow) error
}

// Registry resolves workflow IDs to definitions. Built-ins are an
// immutable seed dataset loaded at construction; persisted workflows
// take precedence so a stored definition can shadow a built-in.
type Registry struct {
	store   Store
	builtin map[string]*types.Workflow
}

// NewRegistry creates a registry seeded with the built-in workflows.
// store may be nil, in which case only built-ins resolve and Register
// is unavailable.
func NewRegistry(store Store) *Registry {
	builtin := make(map[string]*types.Workflow, len(builtinWorkflows))
	for _, wf := range builtinWorkflows {
		builtin[wf.ID] = wf
	}
	return &Registry{store: store, builtin: builtin}
}

// Resolve returns the workflow for the given ID, consulting persisted
// workflows first and falling back to the built-in set. Fails with
// ErrNotFound when neither matches.
func (r *Registry) Resolve(ctx context.Context, id string) (*types.Workflow, error) {
	if r.store != nil {
		wf, err := r.store.GetWorkflow(ctx, id)
		if err != nil {
			return nil, err
		}
		if wf != nil {
			return wf, nil
		}
	}
	if wf, ok := r.builtin[id]; ok {
		return wf, nil
	}
	return nil, types.NotFoundError("workflow", id)
}

// Register validates and persists a custom workflow. Fails with
// ErrInvalidWorkflow if any transition source or target is not a
// declared state.
func (r *Registry) Register(ctx context.Context, wf *types.Workflow) error {
	if err := wf.Validate(); err != nil {
		return err
	}
	return r.store.CreateWorkflow(ctx, wf)
}

// Builtins returns the built-in workflow definitions, in seed order.
// Storage backends use this to seed their workflow tables.
func Builtins() []*types.Workflow {
	return builtinWorkflows
}
