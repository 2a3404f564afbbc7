package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiny-ledger/internal/domain/outbox"
	"github.com/tiny-ledger/internal/domain/shared"
)

// OutboxRepository implements the outbox.Repository interface in memory.
// Returned messages are copies; callers change state through the repository.
type OutboxRepository struct {
	mu            sync.Mutex
	nextID        int64
	messages      map[int64]*outbox.Message
	byTransaction map[uuid.UUID]int64
	logger        *slog.Logger
}

// NewOutboxRepository creates an empty in-memory outbox
func NewOutboxRepository(logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{
		messages:      make(map[int64]*outbox.Message),
		byTransaction: make(map[uuid.UUID]int64),
		logger:        logger,
	}
}

// Create stores a new message and assigns its ID.
// Returns ErrDuplicateMessage if the transaction already has a message.
func (r *OutboxRepository) Create(_ context.Context, message *outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byTransaction[message.TransactionID]; ok {
		return outbox.ErrDuplicateMessage{TransactionID: message.TransactionID}
	}

	r.nextID++
	message.ID = r.nextID
	stored := *message
	r.messages[stored.ID] = &stored
	r.byTransaction[stored.TransactionID] = stored.ID

	r.logger.Debug("Outbox message created", "outbox_id", stored.ID, "transaction_id", stored.TransactionID.String())
	return nil
}

// GetPending returns up to limit pending messages, oldest first
func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make([]*outbox.Message, 0)
	for _, message := range r.messages {
		if message.Status == shared.OutboxStatusPending {
			copied := *message
			pending = append(pending, &copied)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// UpdateStatus updates the message status and last attempt timestamp
func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}

	message.Status = status
	now := time.Now()
	message.LastAttemptAt = &now
	return nil
}

// IncrementAttempts increments the retry counter and updates last attempt time
func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}

	message.IncrementAttempts()
	return nil
}

// Delete removes a message from the outbox
func (r *OutboxRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return outbox.ErrMessageNotFound{ID: id}
	}

	delete(r.byTransaction, message.TransactionID)
	delete(r.messages, id)
	return nil
}

// GetByTransactionID retrieves the message for a transaction
func (r *OutboxRepository) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byTransaction[transactionID]
	if !ok {
		return nil, outbox.ErrMessageNotFound{ID: 0}
	}
	copied := *r.messages[id]
	return &copied, nil
}

var _ outbox.Repository = (*OutboxRepository)(nil)
