package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a broker message persisted in the same transaction as
// the business change that produced it.
type Message struct {
	ID           uuid.UUID
	Topic        string
	Payload      string
	StoredAt     time.Time
	Sent         bool
	Acknowledged bool
}

// NewMessage creates a pending message for the given topic.
func NewMessage(topic, payload string) Message {
	return Message{
		ID:       uuid.New(),
		Topic:    topic,
		Payload:  payload,
		StoredAt: time.Now().UTC(),
	}
}
