package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiny-ledger/internal/domain/transaction"
)

// RecordRequest carries the typed input of a record operation.
// OccurredAt is optional; nil means "now".
type RecordRequest struct {
	Kind          transaction.Kind
	Description   string
	Amount        decimal.Decimal
	OccurredAt    *time.Time
	CorrelationID string
}

// LedgerService defines the operations exposed to the HTTP boundary
type LedgerService interface {
	// Record validates the request against now and stores a new transaction.
	// Returns ErrInvalidTransaction when a business rule is violated.
	Record(req RecordRequest, now time.Time) (transaction.Transaction, error)

	// List returns the transactions within r, newest first
	List(r transaction.TimeRange) []transaction.Transaction

	// Balance returns the signed sum of every stored transaction
	Balance() decimal.Decimal

	// Count returns the number of stored transactions
	Count() int
}
