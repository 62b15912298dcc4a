package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardValidate(t *testing.T) {
	board := &Board{Name: "Sprint 12"}
	require.NoError(t, board.Validate())

	board.Name = "   "
	require.Error(t, board.Validate())
}

func TestTicketValidate(t *testing.T) {
	tests := []struct {
		name    string
		ticket  Ticket
		wantErr bool
	}{
		{
			name:   "valid",
			ticket: Ticket{Title: "Fix login", BoardID: "b1", Priority: PriorityHigh},
		},
		{
			name:    "missing title",
			ticket:  Ticket{BoardID: "b1", Priority: PriorityLow},
			wantErr: true,
		},
		{
			name:    "missing board",
			ticket:  Ticket{Title: "Fix login", Priority: PriorityLow},
			wantErr: true,
		},
		{
			name:    "bad priority",
			ticket:  Ticket{Title: "Fix login", BoardID: "b1", Priority: "asap"},
			wantErr: true,
		},
		{
			name: "title too long",
			ticket: Ticket{
				Title:    string(make([]byte, 501)),
				BoardID:  "b1",
				Priority: PriorityMedium,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ticket.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPriorityIsValid(t *testing.T) {
	assert.True(t, PriorityLow.IsValid())
	assert.True(t, PriorityUrgent.IsValid())
	assert.False(t, Priority("critical").IsValid())
	assert.False(t, Priority("").IsValid())
}

func TestWorkflowValidate(t *testing.T) {
	wf := &Workflow{
		ID:     "two-step",
		States: []string{"open", "closed"},
		Transitions: map[string][]string{
			"open":   {"closed"},
			"closed": {},
		},
	}
	require.NoError(t, wf.Validate())

	t.Run("no states", func(t *testing.T) {
		bad := &Workflow{ID: "empty"}
		err := bad.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWorkflow)
	})

	t.Run("undeclared transition target", func(t *testing.T) {
		bad := &Workflow{
			ID:          "dangling",
			States:      []string{"open"},
			Transitions: map[string][]string{"open": {"archived"}},
		}
		err := bad.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWorkflow)
	})

	t.Run("undeclared transition source", func(t *testing.T) {
		bad := &Workflow{
			ID:          "ghost-source",
			States:      []string{"open"},
			Transitions: map[string][]string{"archived": {"open"}},
		}
		assert.Error(t, bad.Validate())
	})
}

func TestWorkflowTransitions(t *testing.T) {
	wf := &Workflow{
		ID:     "kanban",
		States: []string{"backlog", "todo", "done"},
		Transitions: map[string][]string{
			"backlog": {"todo"},
			"todo":    {"backlog", "done"},
			"done":    {},
		},
	}

	assert.Equal(t, "backlog", wf.InitialState())
	assert.True(t, wf.HasState("todo"))
	assert.False(t, wf.HasState("review"))
	assert.True(t, wf.CanTransition("backlog", "todo"))
	assert.False(t, wf.CanTransition("backlog", "done"))
	assert.Equal(t, []string{"backlog", "done"}, wf.AllowedFrom("todo"))
	assert.True(t, wf.IsTerminal("done"))
	assert.False(t, wf.IsTerminal("todo"))
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("ticket", "t-42")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "ticket t-42 not found", err.Error())
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: "backlog", To: "done", Allowed: []string{"todo"}}
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "invalid status transition: backlog -> done. Allowed: todo", err.Error())

	var target *InvalidTransitionError
	require.True(t, errors.As(error(err), &target))
	assert.Equal(t, []string{"todo"}, target.Allowed)

	terminal := &InvalidTransitionError{From: "closed", To: "open"}
	assert.Contains(t, terminal.Error(), "Allowed: none")
}
