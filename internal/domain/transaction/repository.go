package transaction

// Store holds every recorded transaction keyed by identity.
// It is append-only: there is no update or delete.
type Store interface {
	// Add inserts tx and returns it unchanged.
	// Returns ErrDuplicateIdentity if a transaction with the same ID exists.
	Add(tx Transaction) (Transaction, error)

	// All returns a snapshot of every stored transaction in unspecified order
	All() []Transaction

	// Len returns the number of stored transactions
	Len() int
}
