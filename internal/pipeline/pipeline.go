package pipeline

import (
	"context"
	"errors"
)

// Kind classifies a request as a mutating or read operation. Every request
// type declares its kind explicitly instead of relying on naming conventions.
type Kind int

const (
	KindUnknown Kind = iota
	KindMutation
	KindRead
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindMutation:
		return "mutation"
	case KindRead:
		return "read"
	default:
		return "unknown"
	}
}

// ErrUnknownRequestKind is returned when a request declares neither a
// mutation nor a read kind.
var ErrUnknownRequestKind = errors.New("request is neither a mutation nor a read operation")

// Request is implemented by every request flowing through the pipeline.
type Request interface {
	RequestKind() Kind
}

// Handler processes a request and produces a response.
type Handler[Req Request, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Behavior wraps a handler with cross-cutting logic.
type Behavior[Req Request, Resp any] func(next Handler[Req, Resp]) Handler[Req, Resp]

// Chain applies behaviors around the handler. The first behavior is the
// outermost one, so Chain(h, a, b) runs a, then b, then h.
func Chain[Req Request, Resp any](
	handler Handler[Req, Resp],
	behaviors ...Behavior[Req, Resp],
) Handler[Req, Resp] {
	for i := len(behaviors) - 1; i >= 0; i-- {
		handler = behaviors[i](handler)
	}

	return handler
}
