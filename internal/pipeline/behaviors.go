package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Timing measures how long the wrapped handler takes. When the elapsed time
// exceeds the threshold it emits one warning with the request type name, the
// elapsed milliseconds and the caller identity. The handler's result and
// error pass through unchanged, and elapsed time is recorded on fault too.
func Timing[Req Request, Resp any](
	log *slog.Logger,
	thresholdMs int64,
) Behavior[Req, Resp] {
	return func(next Handler[Req, Resp]) Handler[Req, Resp] {
		return func(ctx context.Context, req Req) (Resp, error) {
			start := time.Now()

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			elapsedMs := elapsed.Milliseconds()

			if elapsedMs > thresholdMs {
				log.WarnContext(ctx, "Long running request",
					"type", fmt.Sprintf("%T", req),
					"elapsed_ms", elapsedMs,
					"actor", ActorFrom(ctx),
				)
			}

			return resp, err
		}
	}
}

// Classification branches debug logging on the request's declared kind:
// mutations log the request, reads log request and response. A request of
// unknown kind fails the invocation before the handler runs.
func Classification[Req Request, Resp any](
	log *slog.Logger,
) Behavior[Req, Resp] {
	return func(next Handler[Req, Resp]) Handler[Req, Resp] {
		return func(ctx context.Context, req Req) (Resp, error) {
			kind := req.RequestKind()
			if kind != KindMutation && kind != KindRead {
				var zero Resp

				return zero, fmt.Errorf("%T: %w", req, ErrUnknownRequestKind)
			}

			resp, err := next(ctx, req)
			if err != nil {
				return resp, err
			}

			switch kind {
			case KindMutation:
				log.DebugContext(ctx, "Mutation request",
					"type", fmt.Sprintf("%T", req),
					"request", fmt.Sprintf("%+v", req),
				)
			case KindRead:
				log.DebugContext(ctx, "Read request",
					"type", fmt.Sprintf("%T", req),
					"request", fmt.Sprintf("%+v", req),
				)
				log.DebugContext(ctx, "Read response",
					"type", fmt.Sprintf("%T", req),
					"response", fmt.Sprintf("%+v", resp),
				)
			}

			return resp, err
		}
	}
}
