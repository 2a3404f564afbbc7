package producers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tiny-ledger/internal/config"
)

// ErrDLQDisabled is returned when publishing through a producer built without a DLQ topic
var ErrDLQDisabled = errors.New("dead letter queue is disabled")

// DeadLetter is the envelope written to the DLQ topic
type DeadLetter struct {
	OriginalKey   string `json:"original_key"`
	OriginalValue string `json:"original_value"`
	Reason        string `json:"dlq_reason"`
	Source        string `json:"source"`
	Timestamp     string `json:"timestamp"`
}

// DLQProducer writes messages that could not be published or projected
type DLQProducer struct {
	logger   *slog.Logger
	writer   KafkaWriter
	dlqTopic string
	source   string
}

// NewDLQProducer builds a DLQ producer tagged with source, the component that
// dead-letters messages. Returns nil when cfg.DLQTopic is empty.
func NewDLQProducer(logger *slog.Logger, cfg *config.KafkaConfig, source string) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured, dead-lettering disabled")
		return nil, nil
	}

	if err := ensureTopic(cfg, cfg.DLQTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	return &DLQProducer{
		logger:   logger,
		writer:   newSyncWriter(cfg, cfg.DLQTopic, kafka.RequireAll, logger),
		dlqTopic: cfg.DLQTopic,
		source:   source,
	}, nil
}

// PublishToDLQ wraps the original message in a DeadLetter envelope.
// A nil producer returns ErrDLQDisabled.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	value, err := json.Marshal(DeadLetter{
		OriginalKey:   key,
		OriginalValue: string(originalMessageValue),
		Reason:        reason,
		Source:        p.source,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderDLQReason, Value: []byte(reason)},
			{Key: HeaderDLQSource, Value: []byte(p.source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message to DLQ",
			"topic", p.dlqTopic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to DLQ %s: %w", p.dlqTopic, err)
	}

	p.logger.Warn("Message dead-lettered",
		"topic", p.dlqTopic,
		"key", key,
		"reason", reason,
		"source", p.source,
	)
	return nil
}

// Close closes the underlying writer. Safe on a nil producer.
func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing DLQ producer", "topic", p.dlqTopic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dlq kafka writer for topic %s: %w", p.dlqTopic, err)
	}
	return nil
}

var _ DeadLetterPublisher = (*DLQProducer)(nil)
