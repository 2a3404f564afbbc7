package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/tiny-ledger/internal/config"
)

// EventTypeTransactionRecorded is the event-type header of recorded-transaction events
const EventTypeTransactionRecorded = "TransactionRecorded"

// TransactionEventProducer writes recorded-transaction events to Kafka
type TransactionEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewTransactionEventProducer ensures the event topic exists and builds a
// synchronous writer for it
func NewTransactionEventProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*TransactionEventProducer, error) {
	if cfg.TransactionTopic == "" {
		return nil, fmt.Errorf("kafka transaction topic is not configured")
	}

	if err := ensureTopic(cfg, cfg.TransactionTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure transaction topic %s exists: %w", cfg.TransactionTopic, err)
	}

	return &TransactionEventProducer{
		logger: logger,
		writer: newSyncWriter(cfg, cfg.TransactionTopic, kafka.RequireOne, logger),
		topic:  cfg.TransactionTopic,
	}, nil
}

// Publish writes payload under key. Keys are transaction ids, so every event
// of a transaction lands on the same partition.
func (p *TransactionEventProducer) Publish(ctx context.Context, key string, payload []byte, headers ...kafka.Header) error {
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: append([]kafka.Header{{Key: HeaderEventType, Value: []byte(EventTypeTransactionRecorded)}}, headers...),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish transaction event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish transaction event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published transaction event", "topic", p.topic, "key", key)
	return nil
}

// Close flushes and closes the underlying writer
func (p *TransactionEventProducer) Close() error {
	p.logger.Info("Closing transaction event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

var _ EventPublisher = (*TransactionEventProducer)(nil)
