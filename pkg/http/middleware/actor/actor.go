package actor

import (
	"net/http"

	"github.com/helpdesk-labs/ticket/internal/pipeline"
)

// headerName carries the caller identity set by the gateway.
const headerName = "X-Actor"

// NewActorMiddleware attaches the caller identity from the request header to
// the context. Requests without the header resolve to the system identity.
func NewActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := pipeline.WithActor(r.Context(), r.Header.Get(headerName))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
