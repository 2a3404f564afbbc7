// Package memory provides process-local implementations of the domain
// repositories. Everything held here is lost when the process exits.
package memory

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tiny-ledger/internal/domain/transaction"
)

// TransactionStore implements the transaction.Store interface with a
// mutex-guarded map. The uniqueness check and the insert happen under the
// same write lock.
type TransactionStore struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]transaction.Transaction
	logger       *slog.Logger
}

// NewTransactionStore creates an empty store
func NewTransactionStore(logger *slog.Logger) *TransactionStore {
	return &TransactionStore{
		transactions: make(map[uuid.UUID]transaction.Transaction),
		logger:       logger,
	}
}

// Add stores tx. Returns ErrDuplicateIdentity if its ID is already present.
func (s *TransactionStore) Add(tx transaction.Transaction) (transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; exists {
		s.logger.Error("Transaction already exists", "transaction_id", tx.ID.String())
		return transaction.Transaction{}, transaction.ErrDuplicateIdentity{ID: tx.ID}
	}

	s.transactions[tx.ID] = tx
	return tx, nil
}

// All returns a copy of every stored transaction
func (s *TransactionStore) All() []transaction.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]transaction.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		all = append(all, tx)
	}
	return all
}

// Len returns the number of stored transactions
func (s *TransactionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

var _ transaction.Store = (*TransactionStore)(nil)
