package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tiny-ledger/internal/audit_projector/service"
	"github.com/tiny-ledger/internal/domain/shared"
	"github.com/tiny-ledger/internal/platform/messaging/producers"
)

// EventHandler handles TransactionRecorded messages from Kafka
type EventHandler struct {
	projectionService service.ProjectionService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewEventHandler creates a new handler. producer may be nil.
func NewEventHandler(
	logger *slog.Logger,
	projectionService service.ProjectionService,
	producer producers.DeadLetterPublisher,
) *EventHandler {
	return &EventHandler{
		projectionService: projectionService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage projects one message. A nil return commits the offset.
func (h *EventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.TransactionRecorded
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to unmarshal transaction event", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, "failed to unmarshal transaction event: "+err.Error(), err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received transaction event",
		"transaction_id", event.TransactionID.String(),
		"type", event.Type,
		"amount", event.Amount.String(),
	)

	if err := h.projectionService.Project(ctx, &event); err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			logger.Error("Transaction event rejected", "transaction_id", event.TransactionID.String(), "error", err)
			return h.deadLetter(ctx, key, value, err.Error(), err)
		}
		logger.Error("Failed to project transaction",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("projecting transaction %s failed: %w", event.TransactionID.String(), err)
	}

	return nil
}

// deadLetter parks an unprocessable message. Without a DLQ the original error
// is returned so the offset is not committed.
func (h *EventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.producer == nil {
		return fmt.Errorf("unprocessable message %q: %w", string(key), cause)
	}

	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("unprocessable message %q: %w", string(key), cause)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
