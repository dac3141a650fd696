package listtickets

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/helpdesk-labs/ticket/internal/service/models/ticket"
	"github.com/helpdesk-labs/ticket/internal/service/services/ticketsvc"
)

// service is an interface for the service layer.
type service interface {
	ListTickets(ctx context.Context, query ticketsvc.ListTicketsQuery) ([]ticket.Ticket, error)
}

// ListTickets handles GET /api/tickets.
func ListTickets(w http.ResponseWriter, r *http.Request, svc service) {
	query := ticketsvc.ListTicketsQuery{
		Ids:         parseInt64List(r.URL.Query().Get("ids")),
		CustomerIds: parseInt64List(r.URL.Query().Get("customerIds")),
		Status:      r.URL.Query().Get("status"),
		Page:        parseInt(r.URL.Query().Get("page"), 1),
		PageSize:    parseInt(r.URL.Query().Get("pageSize"), 50),
	}

	tickets, err := svc.ListTickets(r.Context(), query)
	if err != nil {
		slog.Error("Failed to list tickets", "error", err)
		http.Error(w, "failed to list tickets", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tickets)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func parseInt64List(value string) []int64 {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids
}
