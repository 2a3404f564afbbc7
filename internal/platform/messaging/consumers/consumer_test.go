package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tiny-ledger/internal/config"
)

// MockKafkaReader serves queued messages, then blocks until ctx is cancelled
type MockKafkaReader struct {
	mock.Mock
	mu       sync.Mutex
	messages []kafka.Message
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.messages) > 0 {
		msg := m.messages[0]
		m.messages = m.messages[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaReader) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:          "localhost:9092",
		TransactionTopic: "test-topic",
		ConsumerGroup:    "test-group",
		MinBytes:         1024,
		MaxBytes:         10240,
		MaxWait:          time.Second,
	}

	consumer := NewKafkaConsumer(newLogger(), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "test-topic", consumer.topic)
	assert.Equal(t, "test-group", consumer.groupID)
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	t.Run("RetriesFailedMessageBeforeNextOne", func(t *testing.T) {
		first := kafka.Message{Topic: "t", Offset: 1, Key: []byte("first"), Value: []byte("1")}
		second := kafka.Message{Topic: "t", Offset: 2, Key: []byte("second"), Value: []byte("2")}
		reader := &MockKafkaReader{messages: []kafka.Message{first, second}}

		var mu sync.Mutex
		var committed []int64
		reader.On("CommitMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			mu.Lock()
			defer mu.Unlock()
			for _, m := range args.Get(1).([]kafka.Message) {
				committed = append(committed, m.Offset)
			}
		}).Return(nil)

		consumer := newKafkaConsumer(newLogger(), reader, "t", "g")
		consumer.retryDelay = time.Millisecond
		consumer.maxRetryDelay = 2 * time.Millisecond
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		handled := make(chan string, 8)
		failures := 0
		err := consumer.Subscribe(ctx, func(_ context.Context, key, _ []byte) error {
			handled <- string(key)
			if string(key) == "first" && failures < 2 {
				failures++
				return errors.New("sink unavailable")
			}
			return nil
		})
		require.NoError(t, err)

		var order []string
		for len(order) < 4 {
			select {
			case key := <-handled:
				order = append(order, key)
			case <-time.After(2 * time.Second):
				t.Fatalf("handler calls so far: %v", order)
			}
		}
		assert.Equal(t, []string{"first", "first", "first", "second"}, order)

		cancel()
		<-consumer.Done()

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []int64{1, 2}, committed)
	})

	t.Run("CancelDuringRetryLeavesOffsetUncommitted", func(t *testing.T) {
		stuck := kafka.Message{Topic: "t", Offset: 7, Key: []byte("stuck")}
		reader := &MockKafkaReader{messages: []kafka.Message{stuck}}

		consumer := newKafkaConsumer(newLogger(), reader, "t", "g")
		consumer.retryDelay = 5 * time.Millisecond
		consumer.maxRetryDelay = 5 * time.Millisecond
		ctx, cancel := context.WithCancel(context.Background())

		handled := make(chan struct{}, 16)
		require.NoError(t, consumer.Subscribe(ctx, func(context.Context, []byte, []byte) error {
			select {
			case handled <- struct{}{}:
			default:
			}
			return errors.New("sink unavailable")
		}))

		<-handled
		<-handled
		cancel()

		select {
		case <-consumer.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not stop after cancel")
		}
		reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
	})

	t.Run("CommitErrorDoesNotStopLoop", func(t *testing.T) {
		first := kafka.Message{Offset: 1, Key: []byte("a")}
		second := kafka.Message{Offset: 2, Key: []byte("b")}
		reader := &MockKafkaReader{messages: []kafka.Message{first, second}}
		reader.On("CommitMessages", mock.Anything, []kafka.Message{first}).Return(errors.New("rebalance")).Once()
		reader.On("CommitMessages", mock.Anything, []kafka.Message{second}).Return(nil).Once()

		consumer := newKafkaConsumer(newLogger(), reader, "t", "g")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(2)
		require.NoError(t, consumer.Subscribe(ctx, func(context.Context, []byte, []byte) error {
			wg.Done()
			return nil
		}))
		wg.Wait()

		cancel()
		<-consumer.Done()
		reader.AssertExpectations(t)
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: newLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &MockKafkaReader{}
		reader.On("Close").Return(nil).Once()
		consumer := newKafkaConsumer(newLogger(), reader, "t", "g")

		require.NoError(t, consumer.Close())
		reader.AssertExpectations(t)
	})
}
