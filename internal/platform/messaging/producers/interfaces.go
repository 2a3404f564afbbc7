package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Header keys attached to published events
const (
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderDLQReason     = "dlq-reason"
	HeaderDLQSource     = "dlq-source"
)

// EventPublisher publishes already encoded events to the primary topic.
// Publish returns only after the broker acknowledged the write.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte, headers ...kafka.Header) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
