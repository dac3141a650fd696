package ticketsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-labs/ticket/internal/pipeline"
	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
)

type fakeTicketRepo struct {
	tickets   []ticket.Ticket
	lastQuery *ticket.QueryTicketsModel
	queryErr  error
}

func (f *fakeTicketRepo) Insert(ctx context.Context, tx pgx.Tx, t ticket.Ticket) (ticket.Ticket, error) {
	t.ID = int64(len(f.tickets) + 1)
	f.tickets = append(f.tickets, t)

	return t, nil
}

func (f *fakeTicketRepo) Query(ctx context.Context, model *ticket.QueryTicketsModel) ([]ticket.Ticket, error) {
	f.lastQuery = model
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	return f.tickets, nil
}

func TestRequestKinds(t *testing.T) {
	assert.Equal(t, pipeline.KindMutation, CreateTicketCommand{}.RequestKind())
	assert.Equal(t, pipeline.KindRead, ListTicketsQuery{}.RequestKind())
}

func TestListTickets(t *testing.T) {
	t.Run("applies paging defaults", func(t *testing.T) {
		repo := &fakeTicketRepo{}
		svc := MustNewTicketService(WithRepositories(repo, nil))

		tickets, err := svc.ListTickets(context.Background(), ListTicketsQuery{})

		require.NoError(t, err)
		assert.NotNil(t, tickets)
		assert.Empty(t, tickets)
		require.NotNil(t, repo.lastQuery)
		assert.Equal(t, 50, repo.lastQuery.Limit)
		assert.Equal(t, 0, repo.lastQuery.Offset)
	})

	t.Run("computes the offset from the page", func(t *testing.T) {
		repo := &fakeTicketRepo{}
		svc := MustNewTicketService(WithRepositories(repo, nil))

		_, err := svc.ListTickets(context.Background(), ListTicketsQuery{Page: 3, PageSize: 20})

		require.NoError(t, err)
		assert.Equal(t, 20, repo.lastQuery.Limit)
		assert.Equal(t, 40, repo.lastQuery.Offset)
	})

	t.Run("passes filters through", func(t *testing.T) {
		repo := &fakeTicketRepo{}
		svc := MustNewTicketService(WithRepositories(repo, nil))

		_, err := svc.ListTickets(context.Background(), ListTicketsQuery{
			Ids:         []int64{1, 2},
			CustomerIds: []int64{7},
			Status:      "open",
		})

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, repo.lastQuery.Ids)
		assert.Equal(t, []int64{7}, repo.lastQuery.CustomerIds)
		assert.Equal(t, "open", repo.lastQuery.Status)
	})

	t.Run("repository errors propagate through the pipeline", func(t *testing.T) {
		repo := &fakeTicketRepo{queryErr: errors.New("db down")}
		svc := MustNewTicketService(WithRepositories(repo, nil))

		_, err := svc.ListTickets(context.Background(), ListTicketsQuery{})

		require.Error(t, err)
	})
}
