package handler

import (
	"fmt"
	"time"

	"github.com/tiny-ledger/internal/domain/transaction"
	"github.com/tiny-ledger/internal/ledger_api/service"
)

// errBadInput marks request input that could not be turned into typed values
type errBadInput struct {
	message string
}

func (e errBadInput) Error() string {
	return e.message
}

func badInput(format string, args ...any) error {
	return errBadInput{message: fmt.Sprintf(format, args...)}
}

// parseCreateTransaction converts the raw request body into a RecordRequest.
// Business rules (description, amount sign, future timestamps) are left to
// the service.
func parseCreateTransaction(req CreateTransactionRequest, correlationID string) (service.RecordRequest, error) {
	kind, err := transaction.ParseKind(req.Type)
	if err != nil {
		return service.RecordRequest{}, badInput("type must be one of %s, %s", transaction.KindDeposit, transaction.KindWithdrawal)
	}

	if req.Amount == nil {
		return service.RecordRequest{}, badInput("amount is required")
	}

	parsed := service.RecordRequest{
		Kind:          kind,
		Description:   req.Description,
		Amount:        *req.Amount,
		CorrelationID: correlationID,
	}

	if req.OccurredAt != nil {
		occurredAt, err := parseTimestamp("occurred_at", *req.OccurredAt)
		if err != nil {
			return service.RecordRequest{}, err
		}
		parsed.OccurredAt = &occurredAt
	}

	return parsed, nil
}

// parseTimeRange converts the optional from/to query values into a range.
// Returns ErrInvalidRange when both are present and from is not before to.
func parseTimeRange(rawFrom, rawTo string) (transaction.TimeRange, error) {
	var from, to *time.Time

	if rawFrom != "" {
		parsed, err := parseTimestamp("from", rawFrom)
		if err != nil {
			return transaction.TimeRange{}, err
		}
		from = &parsed
	}

	if rawTo != "" {
		parsed, err := parseTimestamp("to", rawTo)
		if err != nil {
			return transaction.TimeRange{}, err
		}
		to = &parsed
	}

	return transaction.RangeFromBounds(from, to)
}

func parseTimestamp(field, raw string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, badInput("%s must be an RFC3339 timestamp", field)
	}
	return parsed.UTC(), nil
}

func toTransactionResponse(tx transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID.String(),
		Type:        string(tx.Kind),
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(transaction.AmountScale),
		OccurredAt:  tx.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}
