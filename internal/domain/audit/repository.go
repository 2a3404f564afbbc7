package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages audit record persistence
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Record, error)
}

// ErrRecordNotFound indicates missing audit record
type ErrRecordNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "audit record not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// If the target TransactionID is empty, consider it a match for any ErrRecordNotFound
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateRecord indicates the transaction was already projected
type ErrDuplicateRecord struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate audit record: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
