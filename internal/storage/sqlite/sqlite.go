// Package sqlite implements the storage contract on SQLite. This is
// the zero-configuration default backend: a single database file with
// WAL journaling, foreign keys enforced, and the built-in workflows
// seeded at open.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ticketkit/ticketkit/internal/workflow"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend. The special path
// ":memory:" creates an in-memory database (useful for tests).
func New(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		// Ensure directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.seedWorkflows(); err != nil {
		return nil, fmt.Errorf("failed to seed workflows: %w", err)
	}

	return s, nil
}

// seedWorkflows inserts the built-in workflows, leaving any existing
// rows (including shadowed built-ins) untouched.
func (s *SQLiteStorage) seedWorkflows() error {
	for _, wf := range workflow.Builtins() {
		states, err := json.Marshal(wf.States)
		if err != nil {
			return fmt.Errorf("failed to marshal states for %s: %w", wf.ID, err)
		}
		transitions, err := json.Marshal(wf.Transitions)
		if err != nil {
			return fmt.Errorf("failed to marshal transitions for %s: %w", wf.ID, err)
		}
		_, err = s.db.Exec(`
			INSERT OR IGNORE INTO workflows (id, name, states, transitions)
			VALUES (?, ?, ?, ?)
		`, wf.ID, wf.Name, string(states), string(transitions))
		if err != nil {
			return fmt.Errorf("failed to seed workflow %s: %w", wf.ID, err)
		}
	}
	return nil
}

// marshalField serializes a JSON column value, defaulting nil slices
// and maps to their empty JSON forms.
func marshalField(v any, empty string) (string, error) {
	if v == nil {
		return empty, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal field: %w", err)
	}
	return string(raw), nil
}

// nullString converts an optional string to its NULL-able form.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
