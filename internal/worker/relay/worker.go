package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/helpdesk-labs/ticket/internal/dal/interfaces/ioutboxrepo"
)

// publisher sends a payload to a broker topic.
type publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

// Worker drains the outbox table through the broker publisher. Delivery is
// at-least-once: a batch is deleted only after every message in it
// published, and any failure leaves the whole batch in place for the next
// tick.
type Worker struct {
	outboxRepo     ioutboxrepo.IOutboxRepository
	publisher      publisher
	pollInterval   time.Duration
	publishTimeout time.Duration
	batchSize      int
	stopCh         chan struct{}

	// cycleMu keeps cycles from overlapping should RunCycle ever be
	// triggered outside the ticker loop.
	cycleMu sync.Mutex
}

// NewWorker creates a new relay worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
	pollInterval time.Duration,
	publishTimeout time.Duration,
	batchSize int,
) *Worker {
	return &Worker{
		outboxRepo:     outboxRepo,
		publisher:      publisher,
		pollInterval:   pollInterval,
		publishTimeout: publishTimeout,
		batchSize:      batchSize,
		stopCh:         make(chan struct{}),
	}
}

// Start begins relaying messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox relay started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox relay shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox relay stopped")

			return
		case <-ticker.C:
			if err := w.RunCycle(ctx); err != nil {
				slog.Error("Error when relaying outbox messages", "error", err)
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// RunCycle fetches one batch of pending messages, publishes them in stored
// order, and deletes the batch once every publish succeeded. Any error
// aborts the cycle without deleting anything.
func (w *Worker) RunCycle(ctx context.Context) error {
	if !w.cycleMu.TryLock() {
		return nil
	}
	defer w.cycleMu.Unlock()

	ctx, span := otel.Tracer("relay").Start(ctx, "Worker.RunCycle")
	defer span.End()

	messages, err := w.outboxRepo.FetchPending(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending messages: %w", err)
	}

	if len(messages) == 0 {
		slog.Debug("No pending outbox messages")

		return nil
	}

	slog.Info("Relaying outbox messages", "count", len(messages))

	ids := make([]uuid.UUID, 0, len(messages))
	for _, msg := range messages {
		// Stop before starting a new publish on shutdown; an in-flight
		// publish is bounded by its own timeout.
		if err := ctx.Err(); err != nil {
			return err
		}

		publishCtx, cancel := context.WithTimeout(ctx, w.publishTimeout)
		err := w.publisher.Publish(publishCtx, msg.Topic, msg.Payload)
		cancel()

		if err != nil {
			return fmt.Errorf("failed to publish outbox message %s: %w", msg.ID, err)
		}

		ids = append(ids, msg.ID)
	}

	if err := w.outboxRepo.DeleteBatch(ctx, ids); err != nil {
		// Nothing was deleted; the batch is republished next tick, which
		// at-least-once delivery tolerates.
		return fmt.Errorf("failed to delete published batch: %w", err)
	}

	slog.Debug("Outbox batch relayed", "count", len(ids))

	return nil
}
