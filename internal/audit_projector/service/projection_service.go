package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiny-ledger/internal/domain/audit"
	"github.com/tiny-ledger/internal/domain/shared"
	"github.com/tiny-ledger/internal/domain/transaction"
)

// ErrInvalidEvent marks an event that can never be projected
var ErrInvalidEvent = errors.New("invalid transaction recorded event")

// ProjectionServiceImpl implements ProjectionService on top of an audit.Repository
type ProjectionServiceImpl struct {
	repo   audit.Repository
	clock  func() time.Time
	logger *slog.Logger
}

// NewProjectionService creates a projection service. clock stamps ProjectedAt.
func NewProjectionService(logger *slog.Logger, repo audit.Repository, clock func() time.Time) *ProjectionServiceImpl {
	if clock == nil {
		clock = time.Now
	}
	return &ProjectionServiceImpl{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Project stores one audit record per transaction. Redelivered events are
// acknowledged without writing twice.
func (s *ProjectionServiceImpl) Project(ctx context.Context, event *shared.TransactionRecorded) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	if _, err := transaction.New(event.TransactionID, event.Type, event.Description, event.Amount, event.OccurredAt); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	record, err := audit.NewRecord(event, s.clock())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, audit.ErrDuplicateRecord{}) {
			logger.Info("Transaction already projected, skipping", "transaction_id", event.TransactionID.String())
			return nil
		}
		return fmt.Errorf("failed to store audit record: %w", err)
	}

	logger.Info("Transaction projected",
		"transaction_id", record.TransactionID.String(),
		"type", record.Type,
		"amount_minor", record.AmountMinor,
	)
	return nil
}
