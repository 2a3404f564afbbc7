package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tiny-ledger/internal/domain/transaction"
	"github.com/tiny-ledger/internal/ledger_api/middleware"
	"github.com/tiny-ledger/internal/ledger_api/service"
)

// DataResponse is a generic version of Response for decoding typed data
type DataResponse[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Record(req service.RecordRequest, now time.Time) (transaction.Transaction, error) {
	args := m.Called(req, now)
	return args.Get(0).(transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) List(r transaction.TimeRange) []transaction.Transaction {
	args := m.Called(r)
	return args.Get(0).([]transaction.Transaction)
}

func (m *MockLedgerService) Balance() decimal.Decimal {
	args := m.Called()
	return args.Get(0).(decimal.Decimal)
}

func (m *MockLedgerService) Count() int {
	args := m.Called()
	return args.Int(0)
}

var fixedNow = time.Date(2025, 8, 22, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func newTransactionRouter(h *TransactionHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.POST("/transactions", h.Create)
	router.GET("/transactions", h.List)
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func get(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *ErrorInfo {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.CorrelationID)
	return resp.Error
}

func mustTransaction(t *testing.T, kind transaction.Kind, amount string, occurredAt time.Time) transaction.Transaction {
	t.Helper()
	tx, err := transaction.New(uuid.New(), kind, "test", decimal.RequireFromString(amount), occurredAt)
	require.NoError(t, err)
	return tx
}

func TestTransactionHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))

		occurredAt := fixedNow.Add(-time.Hour)
		stored := mustTransaction(t, transaction.KindDeposit, "35.5", occurredAt)
		mockService.On("Record", mock.MatchedBy(func(req service.RecordRequest) bool {
			return req.Kind == transaction.KindDeposit &&
				req.Description == "salary" &&
				req.Amount.Equal(decimal.RequireFromString("35.5")) &&
				req.OccurredAt != nil && req.OccurredAt.Equal(occurredAt) &&
				req.CorrelationID != ""
		}), fixedNow).Return(stored, nil).Once()

		rr := postJSON(router, `{"type":"DEPOSIT","description":"salary","amount":35.5,"occurred_at":"2025-08-22T11:00:00+02:00"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp DataResponse[TransactionResponse]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, stored.ID.String(), resp.Data.ID)
		assert.Equal(t, "DEPOSIT", resp.Data.Type)
		assert.Equal(t, "35.50", resp.Data.Amount)
		assert.Equal(t, "2025-08-22T09:00:00Z", resp.Data.OccurredAt)
		assert.Equal(t, rr.Header().Get(middleware.CorrelationIDHeader), resp.CorrelationID)
		mockService.AssertExpectations(t)
	})

	t.Run("AmountAsStringAndNoTimestamp", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))

		stored := mustTransaction(t, transaction.KindWithdrawal, "15.50", fixedNow)
		mockService.On("Record", mock.MatchedBy(func(req service.RecordRequest) bool {
			return req.Kind == transaction.KindWithdrawal && req.OccurredAt == nil &&
				req.Amount.Equal(decimal.RequireFromString("15.50"))
		}), fixedNow).Return(stored, nil).Once()

		rr := postJSON(router, `{"type":"WITHDRAWAL","description":"groceries","amount":"15.50"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("BadRequests", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"MalformedJSON", `{"invalid`},
			{"UnknownType", `{"type":"TRANSFER","description":"x","amount":1}`},
			{"MissingType", `{"description":"x","amount":1}`},
			{"MissingAmount", `{"type":"DEPOSIT","description":"x"}`},
			{"NonNumericAmount", `{"type":"DEPOSIT","description":"x","amount":"ten"}`},
			{"BadTimestamp", `{"type":"DEPOSIT","description":"x","amount":1,"occurred_at":"yesterday"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mockService := new(MockLedgerService)
				router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))

				rr := postJSON(router, tt.body)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, CodeBadRequest, decodeError(t, rr).Code)
				mockService.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("InvalidTransaction", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		mockService.On("Record", mock.Anything, fixedNow).
			Return(transaction.Transaction{}, transaction.ErrInvalidTransaction{Reason: "occurred_at must not be in the future"}).Once()

		rr := postJSON(router, `{"type":"DEPOSIT","description":"x","amount":1,"occurred_at":"2030-01-01T00:00:00Z"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		errInfo := decodeError(t, rr)
		assert.Equal(t, CodeInvalidTransaction, errInfo.Code)
		assert.Contains(t, errInfo.Message, "occurred_at must not be in the future")
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateIdentityIsInternal", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		dupErr := fmt.Errorf("failed to store transaction: %w", transaction.ErrDuplicateIdentity{ID: uuid.New()})
		mockService.On("Record", mock.Anything, fixedNow).Return(transaction.Transaction{}, dupErr).Once()

		rr := postJSON(router, `{"type":"DEPOSIT","description":"x","amount":1}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		errInfo := decodeError(t, rr)
		assert.Equal(t, CodeInternalError, errInfo.Code)
		assert.NotContains(t, errInfo.Message, "already exists")
		mockService.AssertExpectations(t)
	})

	t.Run("UnexpectedError", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		mockService.On("Record", mock.Anything, fixedNow).Return(transaction.Transaction{}, errors.New("boom")).Once()

		rr := postJSON(router, `{"type":"DEPOSIT","description":"x","amount":1}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestTransactionHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := newTestLogger()

	t.Run("Unbounded", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		newer := mustTransaction(t, transaction.KindDeposit, "2.35", fixedNow)
		older := mustTransaction(t, transaction.KindWithdrawal, "15.5", fixedNow.Add(-24*time.Hour))
		mockService.On("List", transaction.Unbounded()).Return([]transaction.Transaction{newer, older}).Once()

		rr := get(router, "/transactions")

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp DataResponse[TransactionListResponse]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Transactions, 2)
		assert.Equal(t, newer.ID.String(), resp.Data.Transactions[0].ID)
		assert.Equal(t, "15.50", resp.Data.Transactions[1].Amount)
		assert.Equal(t, "WITHDRAWAL", resp.Data.Transactions[1].Type)
		mockService.AssertExpectations(t)
	})

	t.Run("EmptyListIsArray", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		mockService.On("List", mock.Anything).Return([]transaction.Transaction{}).Once()

		rr := get(router, "/transactions")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"transactions":[]`)
	})

	t.Run("PassesBounds", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		from := fixedNow.Add(-30 * time.Hour)
		to := fixedNow.Add(-20 * time.Hour)
		mockService.On("List", mock.MatchedBy(func(r transaction.TimeRange) bool {
			gotFrom, hasFrom := r.From()
			gotTo, hasTo := r.To()
			return hasFrom && hasTo && gotFrom.Equal(from) && gotTo.Equal(to)
		})).Return([]transaction.Transaction{}).Once()

		rr := get(router, "/transactions?from="+from.Format(time.RFC3339)+"&to="+to.Format(time.RFC3339))

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("LowerBoundOnly", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))
		mockService.On("List", mock.MatchedBy(func(r transaction.TimeRange) bool {
			_, hasFrom := r.From()
			_, hasTo := r.To()
			return hasFrom && !hasTo
		})).Return([]transaction.Transaction{}).Once()

		rr := get(router, "/transactions?from=2025-08-21T04:00:00Z")

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRange", func(t *testing.T) {
		tests := map[string]string{
			"Inverted": "/transactions?from=2025-08-22T00:00:00Z&to=2025-08-21T00:00:00Z",
			"Equal":    "/transactions?from=2025-08-22T00:00:00Z&to=2025-08-22T00:00:00Z",
		}
		for name, target := range tests {
			t.Run(name, func(t *testing.T) {
				mockService := new(MockLedgerService)
				router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))

				rr := get(router, target)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, CodeInvalidRange, decodeError(t, rr).Code)
				mockService.AssertNotCalled(t, "List", mock.Anything)
			})
		}
	})

	t.Run("UnparseableBound", func(t *testing.T) {
		mockService := new(MockLedgerService)
		router := newTransactionRouter(NewTransactionHandler(logger, mockService, fixedClock))

		rr := get(router, "/transactions?to=last-week")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		errInfo := decodeError(t, rr)
		assert.Equal(t, CodeBadRequest, errInfo.Code)
		assert.Equal(t, "to must be an RFC3339 timestamp", errInfo.Message)
		mockService.AssertNotCalled(t, "List", mock.Anything)
	})
}

// TestTransactionHandler_EndToEnd runs the handlers against the real service
// and store
func TestTransactionHandler_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := newTestLogger()
	svc := service.NewLedgerService(logger, newMemoryStore(logger), nil)
	router := newTransactionRouter(NewTransactionHandler(logger, svc, fixedClock))
	balanceHandler := NewBalanceHandler(logger, svc)
	router.GET("/balance", balanceHandler.Get)

	bodies := []string{
		`{"type":"DEPOSIT","description":"d1","amount":"35.50","occurred_at":"2025-08-20T10:00:00Z"}`,
		`{"type":"WITHDRAWAL","description":"w1","amount":"15.50","occurred_at":"2025-08-21T10:00:00Z"}`,
		`{"type":"DEPOSIT","description":"d2","amount":"2.345"}`,
	}
	for _, body := range bodies {
		rr := postJSON(router, body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := postJSON(router, `{"type":"DEPOSIT","description":"future","amount":1,"occurred_at":"2025-08-22T10:00:01Z"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, CodeInvalidTransaction, decodeError(t, rr).Code)

	for _, amount := range []string{`1e20000000`, `"1e20000000"`, `1000000000000000.01`} {
		rr = postJSON(router, `{"type":"DEPOSIT","description":"huge","amount":`+amount+`}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code, amount)
		assert.Equal(t, CodeInvalidTransaction, decodeError(t, rr).Code, amount)
	}

	rr = get(router, "/transactions?from=2025-08-21T04:00:00Z")
	require.Equal(t, http.StatusOK, rr.Code)
	var list DataResponse[TransactionListResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data.Transactions, 2)
	assert.Equal(t, "d2", list.Data.Transactions[0].Description)
	assert.Equal(t, "2.35", list.Data.Transactions[0].Amount)
	assert.Equal(t, "w1", list.Data.Transactions[1].Description)

	rr = get(router, "/balance")
	require.Equal(t, http.StatusOK, rr.Code)
	var balance DataResponse[BalanceResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.Equal(t, "22.35", balance.Data.Balance)
	assert.Equal(t, 3, balance.Data.TransactionCount)
}
