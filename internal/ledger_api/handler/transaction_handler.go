package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiny-ledger/internal/domain/transaction"
	"github.com/tiny-ledger/internal/ledger_api/middleware"
	"github.com/tiny-ledger/internal/ledger_api/service"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	ledgerService service.LedgerService
	clock         func() time.Time
	logger        *slog.Logger
}

// NewTransactionHandler creates a new transaction handler.
// clock supplies "now" for every record call.
func NewTransactionHandler(logger *slog.Logger, ledgerService service.LedgerService, clock func() time.Time) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
		clock:         clock,
		logger:        logger,
	}
}

// Create records a deposit or withdrawal
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	recordReq, err := parseCreateTransaction(req, middleware.GetCorrelationID(c))
	if err != nil {
		h.logger.Warn("Invalid transaction request", "error", err)
		RespondBadRequest(c, err.Error())
		return
	}

	tx, err := h.ledgerService.Record(recordReq, h.clock().UTC())
	if err != nil {
		h.respondError(c, err)
		return
	}

	RespondCreated(c, toTransactionResponse(tx))
}

// List returns the transaction history, optionally bounded by the from and
// to query parameters, newest first
func (h *TransactionHandler) List(c *gin.Context) {
	timeRange, err := parseTimeRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	transactions := h.ledgerService.List(timeRange)

	response := TransactionListResponse{
		Transactions: make([]TransactionResponse, 0, len(transactions)),
	}
	for _, tx := range transactions {
		response.Transactions = append(response.Transactions, toTransactionResponse(tx))
	}

	RespondOK(c, response)
}

// respondError maps error kinds to status codes
func (h *TransactionHandler) respondError(c *gin.Context, err error) {
	var (
		badInputErr   errBadInput
		invalidTxErr  transaction.ErrInvalidTransaction
		invalidRngErr transaction.ErrInvalidRange
	)

	switch {
	case errors.As(err, &badInputErr):
		h.logger.Warn("Invalid request", "error", err)
		RespondBadRequest(c, badInputErr.message)
	case errors.As(err, &invalidTxErr):
		h.logger.Warn("Transaction rejected", "reason", invalidTxErr.Reason)
		RespondInvalidTransaction(c, invalidTxErr.Error())
	case errors.As(err, &invalidRngErr):
		h.logger.Warn("Invalid time range", "error", err)
		RespondInvalidRange(c, invalidRngErr.Error())
	default:
		h.logger.Error("Failed to process transaction request", "error", err)
		_ = c.Error(err)
		RespondInternalError(c)
	}
}
