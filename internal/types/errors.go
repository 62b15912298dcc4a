package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. All engine failures fall into one of four kinds:
// not-found, illegal workflow transition, malformed workflow, or an
// opaque storage failure surfaced unchanged from the backend.
var (
	// ErrNotFound indicates a board, ticket, workflow, comment, or
	// attachment does not exist. Wrapped with entity kind and ID.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a status change not permitted by
	// the board's workflow. Use errors.As with *InvalidTransitionError
	// to inspect the offending transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidWorkflow indicates a malformed workflow definition.
	ErrInvalidWorkflow = errors.New("invalid workflow")
)

// NotFoundError wraps ErrNotFound with the entity kind and ID, e.g.
// "ticket abc123 not found".
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s %s %w", kind, id, ErrNotFound)
}

// InvalidTransitionError reports an illegal status change, naming the
// current status, the requested target, and the allowed set.
type InvalidTransitionError struct {
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	allowed := strings.Join(e.Allowed, ", ")
	if allowed == "" {
		allowed = "none"
	}
	return fmt.Sprintf("invalid status transition: %s -> %s. Allowed: %s", e.From, e.To, allowed)
}

// Is makes errors.Is(err, ErrInvalidTransition) match.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// InvalidWorkflowError reports a malformed workflow definition.
type InvalidWorkflowError struct {
	ID     string
	Reason string
}

func (e *InvalidWorkflowError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid workflow: %s", e.Reason)
	}
	return fmt.Sprintf("invalid workflow %s: %s", e.ID, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidWorkflow) match.
func (e *InvalidWorkflowError) Is(target error) bool {
	return target == ErrInvalidWorkflow
}
