// Package audit describes the reporting copy of recorded transactions that the
// projector writes into an external sink.
package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tiny-ledger/internal/domain/shared"
	"github.com/tiny-ledger/internal/domain/transaction"
)

// Record represents a projected transaction in the audit sink
type Record struct {
	TransactionID uuid.UUID        `json:"transaction_id" bson:"transaction_id"`
	Type          transaction.Kind `json:"type" bson:"type"`
	Description   string           `json:"description" bson:"description"`
	AmountMinor   int64            `json:"amount_minor" bson:"amount_minor"` // Stored in cents/minor units
	OccurredAt    time.Time        `json:"occurred_at" bson:"occurred_at"`
	RecordedAt    time.Time        `json:"recorded_at" bson:"recorded_at"`
	ProjectedAt   time.Time        `json:"projected_at" bson:"projected_at"`
	CorrelationID string           `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
}

// ErrAmountOutOfRange indicates an amount whose minor units do not fit the
// sink's integer column.
var ErrAmountOutOfRange = errors.New("amount out of range for minor units")

// NewRecord converts a recorded-transaction event into an audit record
func NewRecord(event *shared.TransactionRecorded, projectedAt time.Time) (*Record, error) {
	if !transaction.AmountWithinLimit(event.Amount) {
		return nil, ErrAmountOutOfRange
	}
	minor := transaction.NormalizeAmount(event.Amount).Shift(transaction.AmountScale)
	if !minor.BigInt().IsInt64() {
		return nil, ErrAmountOutOfRange
	}

	return &Record{
		TransactionID: event.TransactionID,
		Type:          event.Type,
		Description:   event.Description,
		AmountMinor:   minor.IntPart(),
		OccurredAt:    event.OccurredAt.UTC(),
		RecordedAt:    event.RecordedAt.UTC(),
		ProjectedAt:   projectedAt.UTC(),
		CorrelationID: event.CorrelationID,
	}, nil
}
