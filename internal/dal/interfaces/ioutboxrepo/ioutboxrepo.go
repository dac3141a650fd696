package ioutboxrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-labs/ticket/internal/service/models/outbox"
)

// IOutboxRepository defines the interface for outbox operations.
type IOutboxRepository interface {
	// Insert adds a new message to the outbox within the given transaction
	Insert(ctx context.Context, tx pgx.Tx, msg outbox.Message) error

	// FetchPending retrieves unsent messages, oldest first
	FetchPending(ctx context.Context, limit int) ([]outbox.Message, error)

	// DeleteBatch removes the given messages in a single statement
	DeleteBatch(ctx context.Context, ids []uuid.UUID) error
}
