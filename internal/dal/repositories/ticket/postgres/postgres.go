package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-labs/ticket/internal/dal/postgres"
	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
)

// TicketRepository implements the ticket repository for PostgreSQL.
type TicketRepository struct {
	client *postgres.Client
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(client *postgres.Client) *TicketRepository {
	return &TicketRepository{
		client: client,
	}
}

// Insert creates a ticket within the given transaction.
func (r *TicketRepository) Insert(
	ctx context.Context,
	tx pgx.Tx,
	t ticket.Ticket,
) (ticket.Ticket, error) {
	query, args, err := sq.Insert("tickets").
		Columns(
			"customer_id",
			"subject",
			"description",
			"status",
			"created_at",
			"updated_at",
		).
		Values(
			t.CustomerID,
			t.Subject,
			t.Description,
			t.Status,
			t.CreatedAt,
			t.UpdatedAt,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return t, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&t.ID); err != nil {
		return t, fmt.Errorf("failed to insert ticket: %w", err)
	}

	return t, nil
}

// Query retrieves tickets matching the filter.
func (r *TicketRepository) Query(
	ctx context.Context,
	model *ticket.QueryTicketsModel,
) ([]ticket.Ticket, error) {
	builder := sq.Select(
		"id",
		"customer_id",
		"subject",
		"description",
		"status",
		"created_at",
		"updated_at",
	).
		From("tickets").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar)

	if len(model.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": model.Ids})
	}
	if len(model.CustomerIds) > 0 {
		builder = builder.Where(sq.Eq{"customer_id": model.CustomerIds})
	}
	if model.Status != "" {
		builder = builder.Where(sq.Eq{"status": model.Status})
	}
	if model.Limit > 0 {
		builder = builder.Limit(uint64(model.Limit))
	}
	if model.Offset > 0 {
		builder = builder.Offset(uint64(model.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var tickets []ticket.Ticket
	for rows.Next() {
		var t ticket.Ticket
		err := rows.Scan(
			&t.ID,
			&t.CustomerID,
			&t.Subject,
			&t.Description,
			&t.Status,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}
