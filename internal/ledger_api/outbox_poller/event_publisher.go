package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/tiny-ledger/internal/domain/outbox"
	"github.com/tiny-ledger/internal/platform/messaging/producers"
)

// ErrUndecodablePayload marks an outbox message that can never be published
var ErrUndecodablePayload = errors.New("outbox payload is not a TransactionRecorded event")

// EventPublisher publishes one outbox message to the broker
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher. A published message is removed
// from the outbox.
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.EventPublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent sends the message payload keyed by transaction id, then
// deletes it from the outbox
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err != nil {
		return fmt.Errorf("outbox message %d: %w: %v", message.ID, ErrUndecodablePayload, err)
	}

	logger := p.logger
	var headers []kafka.Header
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
		headers = append(headers, kafka.Header{Key: producers.HeaderCorrelationID, Value: []byte(event.CorrelationID)})
	}

	key := message.TransactionID.String()
	if err := p.producer.Publish(ctx, key, message.Payload, headers...); err != nil {
		return fmt.Errorf("failed to publish event for transaction %s: %w", key, err)
	}

	if err := p.outboxRepo.Delete(ctx, message.ID); err != nil {
		logger.Error("Event published but outbox message could not be removed",
			"outbox_id", message.ID, "transaction_id", key, "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to remove outbox message %d: %w", key, message.ID, err)
	}

	logger.Info("Transaction event published", "outbox_id", message.ID, "transaction_id", key)
	return nil
}
