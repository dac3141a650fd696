package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchCommand struct{ kind Kind }

func (c fetchCommand) RequestKind() Kind { return c.kind }

type recordedLog struct {
	level   slog.Level
	message string
	attrs   map[string]string
}

// recordingHandler captures log records for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []recordedLog
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]string)
	rec.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.String()

		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, recordedLog{level: rec.Level, message: rec.Message, attrs: attrs})

	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) byLevel(level slog.Level) []recordedLog {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []recordedLog
	for _, rec := range h.records {
		if rec.level == level {
			out = append(out, rec)
		}
	}

	return out
}

func newRecorder() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{}

	return slog.New(h), h
}

func TestChain(t *testing.T) {
	t.Run("applies behaviors outermost first", func(t *testing.T) {
		var order []string

		tag := func(name string) Behavior[fetchCommand, string] {
			return func(next Handler[fetchCommand, string]) Handler[fetchCommand, string] {
				return func(ctx context.Context, req fetchCommand) (string, error) {
					order = append(order, name)

					return next(ctx, req)
				}
			}
		}

		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				order = append(order, "handler")

				return "ok", nil
			},
			tag("a"),
			tag("b"),
		)

		resp, err := handler(context.Background(), fetchCommand{kind: KindRead})

		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
		assert.Equal(t, []string{"a", "b", "handler"}, order)
	})
}

func TestClassification(t *testing.T) {
	t.Run("mutation logs request only", func(t *testing.T) {
		log, rec := newRecorder()

		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				return "secret-response", nil
			},
			Classification[fetchCommand, string](log),
		)

		_, err := handler(context.Background(), fetchCommand{kind: KindMutation})
		require.NoError(t, err)

		debugs := rec.byLevel(slog.LevelDebug)
		require.Len(t, debugs, 1)
		assert.Equal(t, "Mutation request", debugs[0].message)
		for _, d := range debugs {
			assert.NotContains(t, d.attrs["response"], "secret-response")
		}
	})

	t.Run("read logs request and response", func(t *testing.T) {
		log, rec := newRecorder()

		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				return "the-response", nil
			},
			Classification[fetchCommand, string](log),
		)

		_, err := handler(context.Background(), fetchCommand{kind: KindRead})
		require.NoError(t, err)

		debugs := rec.byLevel(slog.LevelDebug)
		require.Len(t, debugs, 2)
		assert.Equal(t, "Read request", debugs[0].message)
		assert.Equal(t, "Read response", debugs[1].message)
		assert.Contains(t, debugs[1].attrs["response"], "the-response")
	})

	t.Run("unknown kind fails the invocation", func(t *testing.T) {
		log, rec := newRecorder()

		invoked := false
		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				invoked = true

				return "ok", nil
			},
			Classification[fetchCommand, string](log),
		)

		_, err := handler(context.Background(), fetchCommand{kind: KindUnknown})

		require.ErrorIs(t, err, ErrUnknownRequestKind)
		assert.False(t, invoked)
		assert.Empty(t, rec.byLevel(slog.LevelDebug))
	})

	t.Run("handler fault propagates without a response log", func(t *testing.T) {
		log, rec := newRecorder()

		wantErr := errors.New("handler blew up")
		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				return "", wantErr
			},
			Classification[fetchCommand, string](log),
		)

		_, err := handler(context.Background(), fetchCommand{kind: KindRead})

		require.ErrorIs(t, err, wantErr)
		assert.Empty(t, rec.byLevel(slog.LevelDebug))
	})
}

func TestTiming(t *testing.T) {
	t.Run("slow request emits one warning with elapsed and actor", func(t *testing.T) {
		log, rec := newRecorder()

		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				time.Sleep(30 * time.Millisecond)

				return "ok", nil
			},
			Timing[fetchCommand, string](log, 10),
		)

		ctx := WithActor(context.Background(), "agent-42")
		resp, err := handler(ctx, fetchCommand{kind: KindRead})

		require.NoError(t, err)
		assert.Equal(t, "ok", resp)

		warns := rec.byLevel(slog.LevelWarn)
		require.Len(t, warns, 1)
		assert.Equal(t, "Long running request", warns[0].message)
		assert.Contains(t, warns[0].attrs["type"], "fetchCommand")
		assert.Equal(t, "agent-42", warns[0].attrs["actor"])
	})

	t.Run("fast request emits nothing", func(t *testing.T) {
		log, rec := newRecorder()

		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				return "ok", nil
			},
			Timing[fetchCommand, string](log, 10_000),
		)

		_, err := handler(context.Background(), fetchCommand{kind: KindRead})

		require.NoError(t, err)
		assert.Empty(t, rec.byLevel(slog.LevelWarn))
	})

	t.Run("never alters result or fault", func(t *testing.T) {
		log, _ := newRecorder()

		wantErr := errors.New("handler blew up")
		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				time.Sleep(20 * time.Millisecond)

				return "partial", wantErr
			},
			Timing[fetchCommand, string](log, 1),
		)

		resp, err := handler(context.Background(), fetchCommand{kind: KindMutation})

		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, "partial", resp)
	})

	t.Run("unauthenticated caller resolves to the system sentinel", func(t *testing.T) {
		log, rec := newRecorder()

		handler := Chain(
			func(ctx context.Context, req fetchCommand) (string, error) {
				time.Sleep(20 * time.Millisecond)

				return "ok", nil
			},
			Timing[fetchCommand, string](log, 1),
		)

		_, err := handler(context.Background(), fetchCommand{kind: KindRead})
		require.NoError(t, err)

		warns := rec.byLevel(slog.LevelWarn)
		require.Len(t, warns, 1)
		assert.Equal(t, SystemActor, warns[0].attrs["actor"])
	})
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, SystemActor, ActorFrom(ctx))
	assert.Equal(t, "agent-7", ActorFrom(WithActor(ctx, "agent-7")))
	assert.Equal(t, SystemActor, ActorFrom(WithActor(ctx, "")))
}
