package handler

import "github.com/shopspring/decimal"

// CreateTransactionRequest represents a request to record a new transaction.
// Fields are checked by parseCreateTransaction rather than binding tags.
type CreateTransactionRequest struct {
	Type        string           `json:"type"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	OccurredAt  *string          `json:"occurred_at,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	OccurredAt  string `json:"occurred_at"`
}

// TransactionListResponse represents a list of transactions in API responses
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// BalanceResponse represents the account balance in API responses
type BalanceResponse struct {
	Balance          string `json:"balance"`
	TransactionCount int    `json:"transaction_count"`
}
