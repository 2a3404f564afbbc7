package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tiny-ledger/internal/config"
)

// fetchRetryDelay is the pause after a failed fetch
const fetchRetryDelay = time.Second

// Backoff bounds for retrying a message whose handler failed
const (
	handleRetryDelay    = 500 * time.Millisecond
	maxHandleRetryDelay = 30 * time.Second
)

// MessageHandler processes one message. A nil return commits the offset.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Done() <-chan struct{}
	Close() error
}

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using a Kafka consumer group
type KafkaConsumer struct {
	reader        KafkaReader
	topic         string
	groupID       string
	retryDelay    time.Duration
	maxRetryDelay time.Duration
	done          chan struct{}
	logger        *slog.Logger
}

// NewKafkaConsumer creates a consumer of the transaction event topic
func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}

	return newKafkaConsumer(logger, kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.BrokerList(),
		Topic:       cfg.TransactionTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	}), cfg.TransactionTopic, cfg.ConsumerGroup)
}

func newKafkaConsumer(logger *slog.Logger, reader KafkaReader, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader:        reader,
		topic:         topic,
		groupID:       groupID,
		retryDelay:    handleRetryDelay,
		maxRetryDelay: maxHandleRetryDelay,
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Subscribe starts fetching messages in the background and hands each one to
// handler. Offsets are committed only after handler succeeds. A failing
// message is retried with backoff before the next one is fetched, since
// committing a later offset would skip it. The loop stops when ctx is
// cancelled, after which Done is closed.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic", "topic", c.topic, "group_id", c.groupID)

	go func() {
		defer close(c.done)
		for {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
				return
			}

			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					continue
				}
				c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(fetchRetryDelay):
				}
				continue
			}

			c.handle(ctx, msg, handler)
		}
	}()

	return nil
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	attrs := []any{
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	}
	c.logger.Debug("Received message from Kafka", attrs...)

	delay := c.retryDelay
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			c.logger.Warn("Consumer stopping, offset not committed", append(attrs, "attempt", attempt, "error", err)...)
			return
		}

		c.logger.Error("Failed to process message, retrying",
			append(attrs, "attempt", attempt, "retry_in", delay, "error", err)...)
		select {
		case <-ctx.Done():
			c.logger.Warn("Consumer stopping, offset not committed", attrs...)
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, c.maxRetryDelay)
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message after successful processing", append(attrs, "error", err)...)
		return
	}
	c.logger.Debug("Message committed", attrs...)
}

// Done is closed once the fetch loop has exited
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

// Close closes the underlying reader
func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
