package ticket

import (
	"time"
)

// Ticket represents a helpdesk ticket.
type Ticket struct {
	ID          int64
	CustomerID  int64
	Subject     string
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
