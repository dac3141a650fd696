package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
	"github.com/helpdesk-labs/ticket/internal/service/services/ticketsvc"
	createticket "github.com/helpdesk-labs/ticket/internal/transport/http/create_ticket"
	listtickets "github.com/helpdesk-labs/ticket/internal/transport/http/list_tickets"
	"github.com/helpdesk-labs/ticket/pkg/http/middleware/actor"
	"github.com/helpdesk-labs/ticket/pkg/http/middleware/trace"
	"github.com/helpdesk-labs/ticket/pkg/logger"
)

type service interface {
	CreateTicket(ctx context.Context, cmd ticketsvc.CreateTicketCommand) (ticket.Ticket, error)
	ListTickets(ctx context.Context, query ticketsvc.ListTicketsQuery) ([]ticket.Ticket, error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/tickets", h.listTickets)
		r.Post("/tickets", h.createTicket)
	})
}

func (h *HTTPTransport) createTicket(w http.ResponseWriter, r *http.Request) {
	createticket.CreateTicket(w, r, h.service)
}

func (h *HTTPTransport) listTickets(w http.ResponseWriter, r *http.Request) {
	listtickets.ListTickets(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(actor.NewActorMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
