// Package service holds the ledger's business rules. It is the only component
// that talks to the transaction store.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiny-ledger/internal/domain/outbox"
	"github.com/tiny-ledger/internal/domain/shared"
	"github.com/tiny-ledger/internal/domain/transaction"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	store      transaction.Store
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewLedgerService creates a new ledger service.
// outboxRepo may be nil, in which case no events are emitted.
func NewLedgerService(logger *slog.Logger, store transaction.Store, outboxRepo outbox.Repository) LedgerService {
	return &LedgerServiceImpl{
		store:      store,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record validates the request and stores a new transaction with a fresh id.
// Nothing is written when validation fails.
func (s *LedgerServiceImpl) Record(req RecordRequest, now time.Time) (transaction.Transaction, error) {
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	if req.Description == "" {
		return transaction.Transaction{}, transaction.ErrInvalidTransaction{Reason: "description must not be empty"}
	}

	if !req.Amount.IsPositive() {
		return transaction.Transaction{}, transaction.ErrInvalidTransaction{Reason: "amount must be greater than zero"}
	}
	// Checked before rounding, which scales the coefficient.
	if !transaction.AmountWithinLimit(req.Amount) {
		return transaction.Transaction{}, transaction.ErrInvalidTransaction{
			Reason: "amount must not exceed " + transaction.MaxAmount.StringFixed(transaction.AmountScale),
		}
	}

	amount := transaction.NormalizeAmount(req.Amount)
	if !amount.IsPositive() {
		return transaction.Transaction{}, transaction.ErrInvalidTransaction{Reason: "amount must be greater than zero"}
	}

	if occurredAt.After(now) {
		return transaction.Transaction{}, transaction.ErrInvalidTransaction{Reason: "occurred_at must not be in the future"}
	}

	tx, err := transaction.New(uuid.New(), req.Kind, req.Description, amount, occurredAt)
	if err != nil {
		return transaction.Transaction{}, err
	}

	stored, err := s.store.Add(tx)
	if err != nil {
		s.logger.Error("Failed to store transaction",
			"transaction_id", tx.ID.String(),
			"error", err,
		)
		return transaction.Transaction{}, fmt.Errorf("failed to store transaction: %w", err)
	}

	s.logger.Info("Transaction recorded",
		"transaction_id", stored.ID.String(),
		"transaction_type", string(stored.Kind),
		"amount", stored.Amount.StringFixed(transaction.AmountScale),
		"occurred_at", stored.OccurredAt,
		"correlation_id", req.CorrelationID,
	)

	s.enqueueRecorded(stored, now, req.CorrelationID)
	return stored, nil
}

// enqueueRecorded writes a TransactionRecorded event to the outbox.
// The store already holds the transaction, so failures are only logged.
func (s *LedgerServiceImpl) enqueueRecorded(tx transaction.Transaction, recordedAt time.Time, correlationID string) {
	if s.outboxRepo == nil {
		return
	}

	message, err := outbox.NewMessage(shared.NewTransactionRecorded(tx, recordedAt, correlationID))
	if err != nil {
		s.logger.Error("Failed to build outbox message", "transaction_id", tx.ID.String(), "error", err)
		return
	}

	if err := s.outboxRepo.Create(context.Background(), message); err != nil {
		s.logger.Error("Failed to enqueue transaction event", "transaction_id", tx.ID.String(), "error", err)
	}
}

// List returns the transactions whose occurred_at lies in r, sorted newest
// first. Equal timestamps are ordered by id bytes.
func (s *LedgerServiceImpl) List(r transaction.TimeRange) []transaction.Transaction {
	all := s.store.All()

	matched := make([]transaction.Transaction, 0, len(all))
	for _, tx := range all {
		if r.Contains(tx.OccurredAt) {
			matched = append(matched, tx)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) < 0
	})

	return matched
}

// Balance sums deposits minus withdrawals
func (s *LedgerServiceImpl) Balance() decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range s.store.All() {
		balance = balance.Add(tx.SignedAmount())
	}
	return balance
}

// Count returns the number of stored transactions
func (s *LedgerServiceImpl) Count() int {
	return s.store.Len()
}
