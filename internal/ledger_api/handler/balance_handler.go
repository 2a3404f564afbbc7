package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/tiny-ledger/internal/domain/transaction"
	"github.com/tiny-ledger/internal/ledger_api/service"
)

// BalanceHandler serves the running balance
type BalanceHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(logger *slog.Logger, ledgerService service.LedgerService) *BalanceHandler {
	return &BalanceHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Get returns deposits minus withdrawals over every recorded transaction
func (h *BalanceHandler) Get(c *gin.Context) {
	balance := h.ledgerService.Balance()
	count := h.ledgerService.Count()

	h.logger.Debug("Balance computed", "balance", balance.String(), "transaction_count", count)

	RespondOK(c, BalanceResponse{
		Balance:          balance.StringFixed(transaction.AmountScale),
		TransactionCount: count,
	})
}
