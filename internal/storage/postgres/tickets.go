package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
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

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateTicket creates a new ticket
func (s *PostgresStorage) CreateTicket(ctx context.Context, ticket *types.Ticket) error {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO tickets (
			id, board_id, title, description, status, priority,
			labels, assignees, parent_id, custom_fields, position, due_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		ticket.ID, ticket.BoardID, ticket.Title, ticket.Description,
		ticket.Status, string(ticket.Priority), labels, assignees,
		nullString(ticket.ParentID), customFields, ticket.Position, ticket.DueDate,
		ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID. Returns (nil, nil) when absent.
func (s *PostgresStorage) GetTicket(ctx context.Context, id string) (*types.Ticket, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM tickets WHERE id = $1`, ticketColumns), id)

	ticket, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*types.Ticket, error) {
	var ticket types.Ticket
	var labels, assignees, customFields []byte
	var parentID *string
	var dueDate *time.Time

	err := row.Scan(
		&ticket.ID, &ticket.BoardID, &ticket.Title, &ticket.Description,
		&ticket.Status, &ticket.Priority, &labels, &assignees,
		&parentID, &customFields, &ticket.Position, &dueDate,
		&ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(labels, &ticket.Labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	if err := json.Unmarshal(assignees, &ticket.Assignees); err != nil {
		return nil, fmt.Errorf("failed to decode assignees: %w", err)
	}
	if err := json.Unmarshal(customFields, &ticket.CustomFields); err != nil {
		return nil, fmt.Errorf("failed to decode custom fields: %w", err)
	}
	if parentID != nil {
		ticket.ParentID = *parentID
	}
	ticket.DueDate = dueDate
	return &ticket, nil
}

// ListTickets returns tickets matching the query, ordered by position
// ascending then creation time descending. Assignee and label filters
// use JSONB containment.
func (s *PostgresStorage) ListTickets(ctx context.Context, query types.TicketQuery) ([]*types.Ticket, error) {
	whereClauses := []string{"TRUE"}
	args := []any{}

	addArg := func(clause string, value any) {
		args = append(args, value)
		whereClauses = append(whereClauses, fmt.Sprintf(clause, len(args)))
	}

	if query.BoardID != "" {
		addArg("board_id = $%d", query.BoardID)
	}
	if query.Status != "" {
		addArg("status = $%d", query.Status)
	}
	if query.Priority != "" {
		addArg("priority = $%d", query.Priority)
	}
	if query.Assignee != "" {
		raw, _ := json.Marshal([]string{query.Assignee})
		addArg("assignees @> $%d", raw)
	}
	if query.Label != "" {
		raw, _ := json.Marshal([]string{query.Label})
		addArg("labels @> $%d", raw)
	}
	if query.ParentID != nil {
		if *query.ParentID == "" {
			whereClauses = append(whereClauses, "parent_id IS NULL")
		} else {
			addArg("parent_id = $%d", *query.ParentID)
		}
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		args = append(args, pattern)
		whereClauses = append(whereClauses,
			fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
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

	rows, err := s.pool.Query(ctx, querySQL, args...)
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
func (s *PostgresStorage) UpdateTicket(ctx context.Context, id string, updates map[string]any) (*types.Ticket, error) {
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
			value = raw
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, len(args)))
	}

	if len(setClauses) == 0 {
		return s.GetTicket(ctx, id)
	}

	args = append(args, time.Now().UTC())
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), len(args))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return s.GetTicket(ctx, id)
}

// DeleteTicket deletes a ticket; comments, activities, and attachments
// cascade.
func (s *PostgresStorage) DeleteTicket(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

// BulkUpdateTickets applies the same update to each ticket in turn.
// Not transactional: a failure leaves earlier updates applied.
func (s *PostgresStorage) BulkUpdateTickets(ctx context.Context, ids []string, updates map[string]any) error {
	for _, id := range ids {
		if _, err := s.UpdateTicket(ctx, id, updates); err != nil {
			return fmt.Errorf("bulk update failed at ticket %s: %w", id, err)
		}
	}
	return nil
}
