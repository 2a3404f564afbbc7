package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiny-ledger/internal/data/memory"
	"github.com/tiny-ledger/internal/domain/transaction"
	"github.com/tiny-ledger/internal/ledger_api/middleware"
)

func newMemoryStore(logger *slog.Logger) transaction.Store {
	return memory.NewTransactionStore(logger)
}

func TestBalanceHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := newTestLogger()

	tests := []struct {
		name     string
		balance  decimal.Decimal
		count    int
		expected string
	}{
		{"Empty", decimal.Zero, 0, "0.00"},
		{"Positive", decimal.RequireFromString("22.35"), 3, "22.35"},
		{"Negative", decimal.RequireFromString("-10"), 3, "-10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockLedgerService)
			mockService.On("Balance").Return(tt.balance).Once()
			mockService.On("Count").Return(tt.count).Once()

			router := gin.New()
			router.Use(middleware.CorrelationID())
			router.GET("/balance", NewBalanceHandler(logger, mockService).Get)

			rr := get(router, "/balance")

			assert.Equal(t, http.StatusOK, rr.Code)
			var resp DataResponse[BalanceResponse]
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp.Data.Balance)
			assert.Equal(t, tt.count, resp.Data.TransactionCount)
			assert.NotEmpty(t, resp.CorrelationID)
			mockService.AssertExpectations(t)
		})
	}
}
