package workflow

import "github.com/ticketkit/ticketkit/internal/types"

// Built-in workflows. These ship with every storage backend and must
// resolve with zero configuration. Treated as immutable; Resolve hands
// out shared pointers and callers must not mutate them.
var builtinWorkflows = []*types.Workflow{
	{
		ID:     "kanban",
		Name:   "Kanban",
		States: []string{"backlog", "todo", "in_progress", "review", "done"},
		Transitions: map[string][]string{
			"backlog":     {"todo"},
			"todo":        {"backlog", "in_progress"},
			"in_progress": {"todo", "review"},
			"review":      {"in_progress", "done"},
			"done":        {"review"},
		},
	},
	{
		ID:     "scrum",
		Name:   "Scrum",
		States: []string{"backlog", "sprint_backlog", "in_progress", "testing", "done"},
		Transitions: map[string][]string{
			"backlog":        {"sprint_backlog"},
			"sprint_backlog": {"backlog", "in_progress"},
			"in_progress":    {"sprint_backlog", "testing"},
			"testing":        {"in_progress", "done"},
			"done":           {"testing"},
		},
	},
	{
		ID:     "support",
		Name:   "Support (Zendesk-style)",
		States: []string{"new", "open", "pending", "on_hold", "solved", "closed"},
		Transitions: map[string][]string{
			"new":     {"open"},
			"open":    {"pending", "on_hold", "solved"},
			"pending": {"open", "solved"},
			"on_hold": {"open"},
			"solved":  {"open", "closed"},
			"closed":  {},
		},
	},
	{
		ID:     "simple",
		Name:   "Simple (Trello-style)",
		States: []string{"todo", "doing", "done"},
		Transitions: map[string][]string{
			"todo":  {"doing"},
			"doing": {"todo", "done"},
			"done":  {"doing"},
		},
	},
}
