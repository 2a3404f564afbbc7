// Package postgres provides the PostgreSQL audit sink.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tiny-ledger/internal/domain/audit"
	"github.com/tiny-ledger/internal/platform/persistence"
)

// AuditRepository implements the audit.Repository interface for PostgreSQL
type AuditRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(logger *slog.Logger, db *persistence.PostgresDB) audit.Repository {
	return &AuditRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create inserts the record. A row that already exists for the transaction
// yields ErrDuplicateRecord and is left untouched.
func (r *AuditRepository) Create(ctx context.Context, record *audit.Record) error {
	query := `
		INSERT INTO transaction_audit (transaction_id, type, description, amount_minor, occurred_at, recorded_at, projected_at, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (transaction_id) DO NOTHING
	`

	tag, err := r.querier.Exec(ctx, query,
		record.TransactionID,
		record.Type,
		record.Description,
		record.AmountMinor,
		record.OccurredAt,
		record.RecordedAt,
		record.ProjectedAt,
		record.CorrelationID,
	)
	if err != nil {
		r.logger.Error("Failed to create audit record",
			"transaction_id", record.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return audit.ErrDuplicateRecord{TransactionID: record.TransactionID}
	}

	return nil
}

// GetByTransactionID retrieves the audit record of a transaction
func (r *AuditRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*audit.Record, error) {
	query := `
		SELECT transaction_id, type, description, amount_minor, occurred_at, recorded_at, projected_at, correlation_id
		FROM transaction_audit
		WHERE transaction_id = $1
	`

	var record audit.Record
	err := r.querier.QueryRow(ctx, query, transactionID).Scan(
		&record.TransactionID,
		&record.Type,
		&record.Description,
		&record.AmountMinor,
		&record.OccurredAt,
		&record.RecordedAt,
		&record.ProjectedAt,
		&record.CorrelationID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, audit.ErrRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get audit record",
			"transaction_id", transactionID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}

	return &record, nil
}
