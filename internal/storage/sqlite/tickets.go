package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ticketkit/ticketkit/internal/types"
)

const ticketColumns = `id, board_id, title, description, status, priority,
	labels, assignees, parent_id, custom_fields, position, due_date,
	created_at, updated_at`

// Allowed fields for ticket update to prevent SQL injection. JSON
// fields are serialized before binding.
var allowedTicketFields = map[string]bool{
	"title":         true,
	"description":   true,
	"status":        true,
	"priority":      true,
	"labels":        true,
	"assignees":     true,
	"parent_id":     true,
	"custom_fields": true,
	"position":      true,
	"due_date":      true,
}

var jsonTicketFields = map[string]bool{
	"labels":        true,
	"assignees":     true,
	"custom_fields": true,
}

// CreateTicket creates a new ticket
func (s *SQLiteStorage) CreateTicket(ctx context.Context, ticket *types.Ticket) error {
	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = now
	}

	labels, err := marshalField(ticket.Labels, "[]")
	if err != nil {
		return err
	}
	assignees, err := marshalField(ticket.Assignees, "[]")
	if err != nil {
		return err
	}
	customFields, err := marshalField(ticket.CustomFields, "{}")
	if err != nil {
		return err
	}

	var dueDate any
	if ticket.DueDate != nil {
		dueDate = *ticket.DueDate
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tickets (
			id, board_id, title, description, status, priority,
			labels, assignees, parent_id, custom_fields, position, due_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ticket.ID, ticket.BoardID, ticket.Title, ticket.Description,
		ticket.Status, string(ticket.Priority), labels, assignees,
		nullString(ticket.ParentID), customFields, ticket.Position, dueDate,
		ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID. Returns (nil, nil) when absent.
func (s *SQLiteStorage) GetTicket(ctx context.Context, id string) (*types.Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM tickets WHERE id = ?`, ticketColumns), id)

	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*types.Ticket, error) {
	var ticket types.Ticket
	var labels, assignees, customFields string
	var parentID sql.NullString
	var dueDate sql.NullTime

	err := row.Scan(
		&ticket.ID, &ticket.BoardID, &ticket.Title, &ticket.Description,
		&ticket.Status, &ticket.Priority, &labels, &assignees,
		&parentID, &customFields, &ticket.Position, &dueDate,
		&ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(labels), &ticket.Labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	if err := json.Unmarshal([]byte(assignees), &ticket.Assignees); err != nil {
		return nil, fmt.Errorf("failed to decode assignees: %w", err)
	}
	if err := json.Unmarshal([]byte(customFields), &ticket.CustomFields); err != nil {
		return nil, fmt.Errorf("failed to decode custom fields: %w", err)
	}
	if parentID.Valid {
		ticket.ParentID = parentID.String
	}
	if dueDate.Valid {
		ticket.DueDate = &dueDate.Time
	}
	return &ticket, nil
}

// ListTickets returns tickets matching the query, ordered by position
// ascending then creation time descending.
func (s *SQLiteStorage) ListTickets(ctx context.Context, query types.TicketQuery) ([]*types.Ticket, error) {
	whereClauses := []string{"1=1"}
	args := []any{}

	if query.BoardID != "" {
		whereClauses = append(whereClauses, "board_id = ?")
		args = append(args, query.BoardID)
	}
	if query.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, query.Status)
	}
	if query.Priority != "" {
		whereClauses = append(whereClauses, "priority = ?")
		args = append(args, query.Priority)
	}
	if query.Assignee != "" {
		// Assignees is a JSON array of strings; match the quoted element.
		whereClauses = append(whereClauses, "assignees LIKE ?")
		args = append(args, `%"`+query.Assignee+`"%`)
	}
	if query.Label != "" {
		whereClauses = append(whereClauses, "labels LIKE ?")
		args = append(args, `%"`+query.Label+`"%`)
	}
	if query.ParentID != nil {
		if *query.ParentID == "" {
			whereClauses = append(whereClauses, "parent_id IS NULL")
		} else {
			whereClauses = append(whereClauses, "parent_id = ?")
			args = append(args, *query.ParentID)
		}
	}
	if query.Search != "" {
		whereClauses = append(whereClauses, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + query.Search + "%"
		args = append(args, pattern, pattern)
	}

	querySQL := fmt.Sprintf(`
		SELECT %s FROM tickets
		WHERE %s
		ORDER BY position ASC, created_at DESC
	`, ticketColumns, strings.Join(whereClauses, " AND "))

	if query.Limit > 0 {
		querySQL += fmt.Sprintf(" LIMIT %d", query.Limit)
		if query.Offset > 0 {
			querySQL += fmt.Sprintf(" OFFSET %d", query.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*types.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// UpdateTicket updates fields on a ticket and returns the fresh row.
// Unknown fields are rejected; an empty update returns the ticket
// as-is without touching updated_at.
func (s *SQLiteStorage) UpdateTicket(ctx context.Context, id string, updates map[string]any) (*types.Ticket, error) {
	setClauses := []string{}
	args := []any{}

	for key, value := range updates {
		if !allowedTicketFields[key] {
			return nil, fmt.Errorf("invalid field for ticket update: %s", key)
		}
		if jsonTicketFields[key] {
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
			}
			value = string(raw)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", key))
		args = append(args, value)
	}

	if len(setClauses) == 0 {
		return s.GetTicket(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id = ?", strings.Join(setClauses, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return s.GetTicket(ctx, id)
}

// DeleteTicket deletes a ticket; comments, activities, and attachments
// cascade.
func (s *SQLiteStorage) DeleteTicket(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

// BulkUpdateTickets applies the same update to each ticket in turn.
// Not transactional: a failure leaves earlier updates applied.
func (s *SQLiteStorage) BulkUpdateTickets(ctx context.Context, ids []string, updates map[string]any) error {
	for _, id := range ids {
		if _, err := s.UpdateTicket(ctx, id, updates); err != nil {
			return fmt.Errorf("bulk update failed at ticket %s: %w", id, err)
		}
	}
	return nil
}
