package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/tiny-ledger/internal/domain/shared"
)

// WorkerPoolProjectionService runs another ProjectionService on an ants pool
type WorkerPoolProjectionService struct {
	baseService ProjectionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProjectionService(
	baseService ProjectionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProjectionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProjectionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Project submits the event to the pool and waits for the worker's result.
func (s *WorkerPoolProjectionService) Project(ctx context.Context, event *shared.TransactionRecorded) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Submitting event to worker pool", "transaction_id", event.TransactionID.String())

	resultChan := make(chan error, 1)
	eventCopy := *event

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Project(ctx, &eventCopy)
	})
	if err != nil {
		logger.Error("Failed to submit event to worker pool",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the worker pool.
func (s *WorkerPoolProjectionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProjectionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProjectionService) Capacity() int {
	return s.pool.Cap()
}
