package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// classError is the counter class shared by all error-level log events.
const classError = "error"

// Dispatcher delivers cards to the notifier from a bounded queue with a
// fixed number of workers. Delivery is best-effort: failures are logged and
// never retried, and a full queue drops the card.
type Dispatcher struct {
	notifier Notifier
	queue    chan Card
	workers  int
	done     chan struct{}

	// mu guards stopped so Enqueue can never race Stop onto a closed queue.
	mu      sync.Mutex
	stopped bool
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// capacity.
func NewDispatcher(notifier Notifier, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}

	return &Dispatcher{
		notifier: notifier,
		queue:    make(chan Card, queueSize),
		workers:  workers,
		done:     make(chan struct{}),
	}
}

// Start runs the workers until the context is canceled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	for range d.workers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case card, ok := <-d.queue:
					if !ok {
						return nil
					}
					if err := d.notifier.Send(gctx, card); err != nil {
						slog.Warn("Failed to send alert", "error", err)
					}
				}
			}
		})
	}

	_ = g.Wait()
	close(d.done)
}

// Enqueue offers a card to the queue without blocking. It reports whether
// the card was accepted; cards offered after Stop are dropped.
func (d *Dispatcher) Enqueue(card Card) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	select {
	case d.queue <- card:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight sends to finish. Later
// Enqueue calls are dropped instead of hitting the closed queue.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-time.After(10 * time.Second):
		slog.Warn("Alert dispatcher shutdown timeout")
	}
}

// HandlerConfig holds the alerting settings of the log handler.
type HandlerConfig struct {
	Enabled       bool
	ServiceName   string
	ServiceDomain string
}

// Handler is an slog.Handler wrapper that turns error-level records into
// alerts, subject to the gate. All records pass through to the wrapped
// handler untouched.
type Handler struct {
	next       slog.Handler
	gate       *Gate
	dispatcher *Dispatcher
	cfg        HandlerConfig
	now        func() time.Time
	attrs      []slog.Attr
}

// NewHandler wraps the given handler with alert dispatch.
func NewHandler(next slog.Handler, gate *Gate, dispatcher *Dispatcher, cfg HandlerConfig) *Handler {
	return &Handler{
		next:       next,
		gate:       gate,
		dispatcher: dispatcher,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Enabled reports whether the wrapped handler handles records at the level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.cfg.Enabled && level == slog.LevelError {
		return true
	}

	return h.next.Enabled(ctx, level)
}

// Handle forwards the record and, for error-level records, evaluates the
// gate and enqueues an alert. Alerting never fails the originating log call.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	err := h.next.Handle(ctx, record)

	if !h.cfg.Enabled || record.Level != slog.LevelError {
		return err
	}

	if !h.gate.Allow(classError) {
		return err
	}

	card := newErrorCard(h.cfg.ServiceName, h.cfg.ServiceDomain, renderMessage(record, h.attrs), h.now())
	if !h.dispatcher.Enqueue(card) {
		slog.Debug("Alert queue unavailable, dropping alert")
	}

	return err
}

// WithAttrs returns a handler whose wrapped handler has the attributes.
// Bound attributes are kept so alerts render them alongside the record's own.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)

	return &clone
}

// WithGroup returns a handler whose wrapped handler has the group.
func (h *Handler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.next = h.next.WithGroup(name)

	return &clone
}

// renderMessage flattens the record message, the handler's bound attributes
// and the record's own attributes.
func renderMessage(record slog.Record, bound []slog.Attr) string {
	msg := record.Message
	for _, attr := range bound {
		msg += " " + attr.String()
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += " " + attr.String()

		return true
	})

	return msg
}
