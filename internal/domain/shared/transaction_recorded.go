package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiny-ledger/internal/domain/transaction"
)

// TransactionRecorded defines the Kafka message emitted once a transaction is stored
type TransactionRecorded struct {
	TransactionID uuid.UUID        `json:"transaction_id"`
	Type          transaction.Kind `json:"type"`
	Description   string           `json:"description"`
	Amount        decimal.Decimal  `json:"amount"`
	OccurredAt    time.Time        `json:"occurred_at"`
	RecordedAt    time.Time        `json:"recorded_at"`
	CorrelationID string           `json:"correlation_id,omitempty"`
}

// NewTransactionRecorded builds the event for a stored transaction
func NewTransactionRecorded(tx transaction.Transaction, recordedAt time.Time, correlationID string) *TransactionRecorded {
	return &TransactionRecorded{
		TransactionID: tx.ID,
		Type:          tx.Kind,
		Description:   tx.Description,
		Amount:        tx.Amount,
		OccurredAt:    tx.OccurredAt,
		RecordedAt:    recordedAt.UTC(),
		CorrelationID: correlationID,
	}
}
