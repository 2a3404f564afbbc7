// Package outbox_poller drains the in-memory outbox to Kafka in the
// background, so recording a transaction never waits on the broker.
package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiny-ledger/internal/config"
	"github.com/tiny-ledger/internal/domain/outbox"
	"github.com/tiny-ledger/internal/domain/shared"
	"github.com/tiny-ledger/internal/platform/messaging/producers"
)

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	eventPublisher   EventPublisher
	dlqProducer      producers.DeadLetterPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

// NewPoller creates a poller. dlqProducer may be nil.
func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	eventPublisher EventPublisher,
	dlqProducer producers.DeadLetterPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		eventPublisher:   eventPublisher,
		dlqProducer:      dlqProducer,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping due to context cancellation")
			return
		case <-ticker.C:
			if err := p.ProcessPending(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// ProcessPending publishes one batch of pending messages. A failed message
// is retried on a later batch until maxRetryAttempts, then dead-lettered.
func (p *Poller) ProcessPending(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := p.eventPublisher.PublishEvent(ctx, msg)
		if err == nil {
			continue
		}

		logger := p.logger.With("outbox_id", msg.ID, "transaction_id", msg.TransactionID.String())

		if errors.Is(err, ErrUndecodablePayload) {
			logger.Error("Outbox message can not be published", "error", err)
			p.deadLetter(ctx, logger, msg, err.Error())
			continue
		}

		logger.Warn("Failed to publish outbox message", "current_attempts", msg.Attempts, "error", err)

		if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
			logger.Error("Failed to increment attempts for outbox message", "error", errInc)
			continue
		}

		if msg.Attempts+1 >= p.maxRetryAttempts {
			logger.Warn("Max retry attempts reached for outbox message", "attempts_made", msg.Attempts+1)
			p.deadLetter(ctx, logger, msg, fmt.Sprintf("max publish attempts (%d) reached: %v", p.maxRetryAttempts, err))
		}
	}
	return nil
}

// deadLetter marks msg as failed and moves it to the DLQ when one is
// configured. Messages stay in the outbox as FAILED_TO_PUBLISH only when no
// DLQ accepted them.
func (p *Poller) deadLetter(ctx context.Context, logger *slog.Logger, msg *outbox.Message, reason string) {
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH", "error", err)
	}

	if p.dlqProducer == nil {
		return
	}
	if err := p.dlqProducer.PublishToDLQ(ctx, msg.TransactionID.String(), msg.Payload, reason); err != nil {
		logger.Error("Failed to dead-letter outbox message", "error", err)
		return
	}

	if err := p.outboxRepo.Delete(ctx, msg.ID); err != nil {
		logger.Error("Failed to delete dead-lettered outbox message", "error", err)
	}
}
