// Package storage defines the persistence contract the ticket engine
// consumes, and backend selection. The core never issues SQL of its
// own; everything it needs from a backend is on the Storage interface.
package storage

import (
	"context"
	"fmt"

	"github.com/ticketkit/ticketkit/internal/storage/postgres"
	"github.com/ticketkit/ticketkit/internal/storage/sqlite"
	"github.com/ticketkit/ticketkit/internal/types"
)

// Storage is the interface for ticket storage backends. Get operations
// return (nil, nil) when the entity does not exist; the orchestrator
// maps that to its not-found error. All other failures are surfaced
// unchanged as opaque storage errors.
type Storage interface {
	// Boards
	CreateBoard(ctx context.Context, board *types.Board) error
	GetBoard(ctx context.Context, id string) (*types.Board, error)
	ListBoards(ctx context.Context) ([]*types.Board, error)
	UpdateBoard(ctx context.Context, id string, updates map[string]any) (*types.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	// Tickets
	CreateTicket(ctx context.Context, ticket *types.Ticket) error
	GetTicket(ctx context.Context, id string) (*types.Ticket, error)
	ListTickets(ctx context.Context, query types.TicketQuery) ([]*types.Ticket, error)
	UpdateTicket(ctx context.Context, id string, updates map[string]any) (*types.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	BulkUpdateTickets(ctx context.Context, ids []string, updates map[string]any) error

	// Comments
	CreateComment(ctx context.Context, comment *types.Comment) error
	ListComments(ctx context.Context, ticketID string) ([]*types.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// Activities (append-only audit trail)
	CreateActivity(ctx context.Context, activity *types.Activity) error
	ListActivities(ctx context.Context, ticketID string, limit int) ([]*types.Activity, error)
	QueryActivity(ctx context.Context, boardID string, query types.ActivityQuery) ([]*types.Activity, error)

	// Workflows
	GetWorkflow(ctx context.Context, id string) (*types.Workflow, error)
	CreateWorkflow(ctx context.Context, wf *types.Workflow) error

	// Attachments
	CreateAttachment(ctx context.Context, att *types.Attachment) error
	GetAttachment(ctx context.Context, id string) (*types.Attachment, error)
	ListAttachments(ctx context.Context, ticketID string) ([]*types.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error

	// Status snapshots (CFD support)
	CountTicketsByStatus(ctx context.Context, boardID, status string) (int, error)
	UpsertSnapshot(ctx context.Context, snap *types.StatusSnapshot) error
	ListSnapshots(ctx context.Context, boardID string, rng types.DateRange) ([]*types.StatusSnapshot, error)
	StatusChangeDates(ctx context.Context, boardID string, rng types.DateRange) ([]string, error)

	// Lifecycle
	Close() error
}

// Backend names accepted by Config.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds storage backend configuration
type Config struct {
	// Backend selects the storage engine: "sqlite" (default) or
	// "postgres".
	Backend string

	// Path is the SQLite database file path.
	// Default: ".ticketkit/ticketkit.db"
	Path string

	// Postgres holds PostgreSQL connection settings, used when Backend
	// is "postgres".
	Postgres *postgres.Config
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendSQLite,
		Path:    ".ticketkit/ticketkit.db",
	}
}

// NewStorage creates a storage backend from the config.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "", BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = ".ticketkit/ticketkit.db"
		}
		return sqlite.New(path)
	case BackendPostgres:
		return postgres.New(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
