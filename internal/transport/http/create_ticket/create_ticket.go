package createticket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/helpdesk-labs/ticket/internal/pipeline"
	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
	"github.com/helpdesk-labs/ticket/internal/service/services/ticketsvc"
)

// service is an interface for the service layer.
type service interface {
	CreateTicket(ctx context.Context, cmd ticketsvc.CreateTicketCommand) (ticket.Ticket, error)
}

// createTicketRequest represents a create ticket request.
type createTicketRequest struct {
	CustomerID  int64  `json:"customerId"  validate:"gt=0"`
	Subject     string `json:"subject"     validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
}

// createTicketResponse represents a created ticket.
type createTicketResponse struct {
	ID          int64     `json:"id"`
	CustomerID  int64     `json:"customerId"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var validate = validator.New()

// CreateTicket handles POST /api/tickets.
func CreateTicket(w http.ResponseWriter, r *http.Request, svc service) {
	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)

		return
	}

	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	t, err := svc.CreateTicket(r.Context(), ticketsvc.CreateTicketCommand{
		CustomerID:  req.CustomerID,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrUnknownRequestKind) {
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}
		slog.Error("Failed to create ticket", "error", err)
		http.Error(w, "failed to create ticket", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createTicketResponse{
		ID:          t.ID,
		CustomerID:  t.CustomerID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	})
}
