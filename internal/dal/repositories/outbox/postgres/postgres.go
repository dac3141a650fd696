package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-labs/ticket/internal/dal/postgres"
	"github.com/helpdesk-labs/ticket/internal/service/models/outbox"
)

// OutboxRepository implements the outbox repository for PostgreSQL.
type OutboxRepository struct {
	client *postgres.Client
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(client *postgres.Client) *OutboxRepository {
	return &OutboxRepository{
		client: client,
	}
}

// Insert adds a new message to the outbox within the given transaction.
func (r *OutboxRepository) Insert(ctx context.Context, tx pgx.Tx, msg outbox.Message) error {
	query, args, err := sq.Insert("outbox").
		Columns(
			"id",
			"topic",
			"payload",
			"stored_at",
			"sent",
			"acknowledged",
		).
		Values(
			msg.ID,
			msg.Topic,
			msg.Payload,
			msg.StoredAt,
			msg.Sent,
			msg.Acknowledged,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	_, err = tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert outbox message: %w", err)
	}

	return nil
}

// FetchPending retrieves unsent messages, oldest first.
func (r *OutboxRepository) FetchPending(
	ctx context.Context,
	limit int,
) ([]outbox.Message, error) {
	query, args, err := sq.Select(
		"id",
		"topic",
		"payload",
		"stored_at",
		"sent",
		"acknowledged",
	).
		From("outbox").
		Where(sq.Eq{"sent": false}).
		OrderBy("stored_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []outbox.Message
	for rows.Next() {
		var msg outbox.Message
		err := rows.Scan(
			&msg.ID,
			&msg.Topic,
			&msg.Payload,
			&msg.StoredAt,
			&msg.Sent,
			&msg.Acknowledged,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}

	return messages, nil
}

// DeleteBatch removes the given messages in a single statement, so the batch
// is gone entirely or not at all.
func (r *OutboxRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Delete("outbox").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	_, err = r.client.Pool().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete outbox messages: %w", err)
	}

	return nil
}
