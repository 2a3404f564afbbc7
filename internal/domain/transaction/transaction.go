// Package transaction holds the ledger's core entity, the time range used to
// filter history and the error kinds shared by the store, the service and the
// HTTP boundary.
package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits kept for amounts (minor units)
const AmountScale int32 = 2

// maxAmountDigits is the number of integer digits of MaxAmount
const maxAmountDigits = 16

// MaxAmount is the largest accepted amount magnitude. In minor units it stays
// well inside int64.
var MaxAmount = decimal.New(1, maxAmountDigits-1)

// Kind defines possible money movements
type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// ParseKind converts the wire representation into a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", ErrInvalidTransaction{Reason: "unknown transaction type: " + s}
	}
	return k, nil
}

// Transaction is an immutable record of one money movement.
// Amount is a magnitude; the sign is derived from Kind.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// New builds a transaction after checking the entity invariants
func New(id uuid.UUID, kind Kind, description string, amount decimal.Decimal, occurredAt time.Time) (Transaction, error) {
	if id == uuid.Nil {
		return Transaction{}, ErrInvalidTransaction{Reason: "transaction id can not be nil"}
	}
	if !kind.Valid() {
		return Transaction{}, ErrInvalidTransaction{Reason: "unknown transaction type: " + string(kind)}
	}
	if description == "" {
		return Transaction{}, ErrInvalidTransaction{Reason: "transaction description can not be empty"}
	}
	if !amount.IsPositive() {
		return Transaction{}, ErrInvalidTransaction{Reason: "transaction amount must be positive"}
	}
	if !AmountWithinLimit(amount) {
		return Transaction{}, ErrInvalidTransaction{Reason: "transaction amount exceeds " + MaxAmount.StringFixed(AmountScale)}
	}
	if occurredAt.IsZero() {
		return Transaction{}, ErrInvalidTransaction{Reason: "transaction occurred_at can not be empty"}
	}

	return Transaction{
		ID:          id,
		Kind:        kind,
		Description: description,
		Amount:      amount,
		OccurredAt:  occurredAt.UTC(),
	}, nil
}

// Equal reports whether both values describe the same transaction.
// Identity alone decides equality.
func (t Transaction) Equal(other Transaction) bool {
	return t.ID == other.ID
}

// SignedAmount returns the amount with the sign implied by the kind
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == KindWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// integerDigits returns the position of the most significant digit of amount
// relative to the decimal point. It never rescales the coefficient.
func integerDigits(amount decimal.Decimal) int {
	return amount.NumDigits() + int(amount.Exponent())
}

// AmountWithinLimit reports whether |amount| <= MaxAmount. Magnitudes are
// compared by digit count first, so extreme exponents cost nothing.
func AmountWithinLimit(amount decimal.Decimal) bool {
	if amount.IsZero() {
		return true
	}
	digits := integerDigits(amount)
	if digits < maxAmountDigits {
		return true
	}
	if digits > maxAmountDigits {
		return false
	}
	return amount.Abs().LessThanOrEqual(MaxAmount)
}

// NormalizeAmount rounds an amount to AmountScale places, half away from zero.
// Amounts below half a minor unit by several orders of magnitude become zero
// without rescaling.
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() || integerDigits(amount) < -int(AmountScale) {
		return decimal.Zero
	}
	return amount.Round(AmountScale)
}
