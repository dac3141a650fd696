package ticketsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/helpdesk-labs/ticket/internal/dal/interfaces/ioutboxrepo"
	"github.com/helpdesk-labs/ticket/internal/dal/interfaces/iticketrepo"
	"github.com/helpdesk-labs/ticket/internal/dal/postgres"
	"github.com/helpdesk-labs/ticket/internal/dal/uow"
	"github.com/helpdesk-labs/ticket/internal/pipeline"
	"github.com/helpdesk-labs/ticket/internal/service/models/outbox"
	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
)

// CreateTicketCommand creates a ticket and stores its outbox message in the
// same transaction.
type CreateTicketCommand struct {
	CustomerID  int64
	Subject     string
	Description string
}

// RequestKind marks the command as a mutating operation.
func (CreateTicketCommand) RequestKind() pipeline.Kind {
	return pipeline.KindMutation
}

// ListTicketsQuery retrieves tickets matching the filters.
type ListTicketsQuery struct {
	Ids         []int64
	CustomerIds []int64
	Status      string
	Page        int
	PageSize    int
}

// RequestKind marks the query as a read operation.
func (ListTicketsQuery) RequestKind() pipeline.Kind {
	return pipeline.KindRead
}

// TicketService is a service for managing tickets.
type TicketService struct {
	pgClient   *postgres.Client
	ticketRepo iticketrepo.ITicketRepository
	outboxRepo ioutboxrepo.IOutboxRepository

	createTicket pipeline.Handler[CreateTicketCommand, ticket.Ticket]
	listTickets  pipeline.Handler[ListTicketsQuery, []ticket.Ticket]
}

// option is a function that configures the TicketService.
type option func(*TicketService)

// MustNewTicketService creates a new TicketService with its handlers wrapped
// in the request pipeline.
func MustNewTicketService(opts ...option) *TicketService {
	s := &TicketService{}
	for _, opt := range opts {
		opt(s)
	}

	log := slog.Default()
	thresholdMs := int64(viper.GetInt("request_performance_threshold_ms"))
	if thresholdMs == 0 {
		thresholdMs = 500
	}

	s.createTicket = pipeline.Chain(
		s.handleCreateTicket,
		pipeline.Timing[CreateTicketCommand, ticket.Ticket](log, thresholdMs),
		pipeline.Classification[CreateTicketCommand, ticket.Ticket](log),
	)
	s.listTickets = pipeline.Chain(
		s.handleListTickets,
		pipeline.Timing[ListTicketsQuery, []ticket.Ticket](log, thresholdMs),
		pipeline.Classification[ListTicketsQuery, []ticket.Ticket](log),
	)

	return s
}

// WithPostgresClient sets the Postgres client for the TicketService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *TicketService) {
		s.pgClient = pgClient
	}
}

// WithRepositories sets the repositories for the TicketService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepositories(
	ticketRepo iticketrepo.ITicketRepository,
	outboxRepo ioutboxrepo.IOutboxRepository,
) option {
	return func(s *TicketService) {
		s.ticketRepo = ticketRepo
		s.outboxRepo = outboxRepo
	}
}

// CreateTicket runs the create command through the pipeline.
func (s *TicketService) CreateTicket(
	ctx context.Context,
	cmd CreateTicketCommand,
) (ticket.Ticket, error) {
	return s.createTicket(ctx, cmd)
}

// ListTickets runs the list query through the pipeline.
func (s *TicketService) ListTickets(
	ctx context.Context,
	query ListTicketsQuery,
) ([]ticket.Ticket, error) {
	return s.listTickets(ctx, query)
}

// handleCreateTicket inserts the ticket and its outbox message in one
// transaction, so the broker message exists exactly when the ticket does.
func (s *TicketService) handleCreateTicket(
	ctx context.Context,
	cmd CreateTicketCommand,
) (ticket.Ticket, error) {
	now := time.Now().UTC()

	t := ticket.Ticket{
		CustomerID:  cmd.CustomerID,
		Subject:     cmd.Subject,
		Description: cmd.Description,
		Status:      "open",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	work := uow.NewUnitOfWork(s.pgClient)
	if err := work.Begin(ctx); err != nil {
		return ticket.Ticket{}, err
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	t, err := s.ticketRepo.Insert(ctx, work.Tx(), t)
	if err != nil {
		return ticket.Ticket{}, err
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("failed to marshal ticket payload: %w", err)
	}

	topic := viper.GetString("rabbitmq.outbox.ticket_created_topic")
	if topic == "" {
		topic = "ticket.created"
	}

	msg := outbox.NewMessage(topic, string(payload))
	if err := s.outboxRepo.Insert(ctx, work.Tx(), msg); err != nil {
		return ticket.Ticket{}, err
	}

	if err := work.Commit(ctx); err != nil {
		return ticket.Ticket{}, err
	}

	return t, nil
}

// handleListTickets queries tickets with paging.
func (s *TicketService) handleListTickets(
	ctx context.Context,
	query ListTicketsQuery,
) ([]ticket.Ticket, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	model := &ticket.QueryTicketsModel{
		Ids:         query.Ids,
		CustomerIds: query.CustomerIds,
		Status:      query.Status,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
	}

	tickets, err := s.ticketRepo.Query(ctx, model)
	if err != nil {
		return nil, err
	}

	if tickets == nil {
		tickets = []ticket.Ticket{}
	}

	return tickets, nil
}
