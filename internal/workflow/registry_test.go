package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketkit/ticketkit/internal/types"
)

// fakeStore is an in-memory workflow store for registry tests.
type fakeStore struct {
	workflows map[string]*types.Workflow
}

func newFakeStore() *fakeStore {
	return &fakeStore{workflows: make(map[string]*types.Workflow)}
}

func (s *fakeStore) GetWorkflow(_ context.Context, id string) (*types.Workflow, error) {
	return s.workflows[id], nil
}

func (s *fakeStore) CreateWorkflow(_ context.Context, wf *types.Workflow) error {
	s.workflows[wf.ID] = wf
	return nil
}

func TestResolveBuiltins(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(nil)

	for _, id := range []string{"kanban", "scrum", "support", "simple"} {
		wf, err := registry.Resolve(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, id, wf.ID)
		require.NoError(t, wf.Validate(), id)
	}

	kanban, err := registry.Resolve(ctx, "kanban")
	require.NoError(t, err)
	assert.Equal(t, []string{"backlog", "todo", "in_progress", "review", "done"}, kanban.States)
	assert.Equal(t, []string{"todo"}, kanban.AllowedFrom("backlog"))
}

func TestResolveUnknown(t *testing.T) {
	registry := NewRegistry(newFakeStore())
	_, err := registry.Resolve(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResolvePersistedShadowsBuiltin(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	registry := NewRegistry(store)

	custom := &types.Workflow{
		ID:          "kanban",
		Name:        "Custom Kanban",
		States:      []string{"todo", "done"},
		Transitions: map[string][]string{"todo": {"done"}, "done": {}},
	}
	require.NoError(t, registry.Register(ctx, custom))

	wf, err := registry.Resolve(ctx, "kanban")
	require.NoError(t, err)
	assert.Equal(t, "Custom Kanban", wf.Name)
}

func TestRegisterRejectsInvalid(t *testing.T) {
	registry := NewRegistry(newFakeStore())

	err := registry.Register(context.Background(), &types.Workflow{
		ID:          "broken",
		States:      []string{"open"},
		Transitions: map[string][]string{"open": {"imaginary"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidWorkflow)
}

func TestBuiltinsAreValid(t *testing.T) {
	for _, wf := range Builtins() {
		assert.NoError(t, wf.Validate(), wf.ID)
		assert.NotEmpty(t, wf.InitialState(), wf.ID)
	}
}
