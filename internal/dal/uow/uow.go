package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-labs/ticket/internal/dal/postgres"
)

// UnitOfWork wraps a single pgx transaction so the ticket insert and its
// outbox message commit or roll back together.
type UnitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx
}

// NewUnitOfWork creates a new unit of work over the Postgres client.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	return &UnitOfWork{
		client: client,
	}
}

// Tx returns the current transaction. Valid only between Begin and
// Commit/Rollback.
func (u *UnitOfWork) Tx() pgx.Tx {
	return u.tx
}

// Begin starts the transaction.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx

	return nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

// Rollback rolls the transaction back. Safe to defer after Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
