package iticketrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
)

// ITicketRepository defines the interface for ticket operations.
type ITicketRepository interface {
	// Insert creates a ticket within the given transaction and returns it
	// with its assigned id
	Insert(ctx context.Context, tx pgx.Tx, t ticket.Ticket) (ticket.Ticket, error)

	// Query retrieves tickets matching the filter
	Query(ctx context.Context, model *ticket.QueryTicketsModel) ([]ticket.Ticket, error)
}
