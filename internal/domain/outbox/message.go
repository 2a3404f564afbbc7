package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tiny-ledger/internal/domain/shared"
)

// Message stores a recorded-transaction event until it is published
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *shared.TransactionRecorded) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetEvent extracts the recorded-transaction event from the payload
func (m *Message) GetEvent() (*shared.TransactionRecorded, error) {
	var event shared.TransactionRecorded
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
