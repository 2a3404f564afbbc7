package service

import (
	"context"

	"github.com/tiny-ledger/internal/domain/shared"
)

// ProjectionService writes recorded-transaction events into the audit sink.
type ProjectionService interface {
	Project(ctx context.Context, event *shared.TransactionRecorded) error
}
