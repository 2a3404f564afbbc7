package transaction

import (
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTransaction indicates that user input violates a business rule
type ErrInvalidTransaction struct {
	Reason string
}

func (e ErrInvalidTransaction) Error() string {
	return "invalid transaction: " + e.Reason
}

// Is implements the errors.Is interface for ErrInvalidTransaction
func (e ErrInvalidTransaction) Is(target error) bool {
	t, ok := target.(ErrInvalidTransaction)
	if !ok {
		return false
	}
	// An empty target reason matches any ErrInvalidTransaction
	return t.Reason == "" || t.Reason == e.Reason
}

// ErrInvalidRange indicates inverted or equal bounds on a history query
type ErrInvalidRange struct {
	From time.Time
	To   time.Time
}

func (e ErrInvalidRange) Error() string {
	return "invalid time range: 'from' (" + e.From.UTC().Format(time.RFC3339Nano) +
		") must be before 'to' (" + e.To.UTC().Format(time.RFC3339Nano) + ")"
}

// Is implements the errors.Is interface for ErrInvalidRange
func (e ErrInvalidRange) Is(target error) bool {
	_, ok := target.(ErrInvalidRange)
	return ok
}

// ErrDuplicateIdentity indicates transaction id uniqueness violation
type ErrDuplicateIdentity struct {
	ID uuid.UUID
}

func (e ErrDuplicateIdentity) Error() string {
	return "transaction with id " + e.ID.String() + " already exists"
}

// Is implements the errors.Is interface for ErrDuplicateIdentity
func (e ErrDuplicateIdentity) Is(target error) bool {
	t, ok := target.(ErrDuplicateIdentity)
	if !ok {
		return false
	}
	// If the target ID is empty, consider it a match for any ErrDuplicateIdentity
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
