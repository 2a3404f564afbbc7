// Package mongo provides the MongoDB audit sink.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tiny-ledger/internal/domain/audit"
)

const (
	// AuditCollectionName is the name of the audit collection in MongoDB
	AuditCollectionName = "transaction_audit"
)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique transaction_id index that Create relies on
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "transaction_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_transaction_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Create stores the record. A second record for the same transaction
// yields ErrDuplicateRecord.
func (r *AuditRepository) Create(ctx context.Context, record *audit.Record) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return audit.ErrDuplicateRecord{TransactionID: record.TransactionID}
		}
		r.logger.Error("Failed to create audit record",
			"transaction_id", record.TransactionID.String(),
			"error", err)
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves the audit record of a transaction.
// Returns ErrRecordNotFound if none exists.
func (r *AuditRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*audit.Record, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{"transaction_id": transactionID}
	var record audit.Record
	err := collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get audit record",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}

	return &record, nil
}
