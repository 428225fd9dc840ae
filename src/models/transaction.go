package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionSource string

const (
	SourceManual TransactionSource = "manual"
	SourcePlaid  TransactionSource = "plaid"
)

// Transaction amounts are signed: negative is an expense, positive is income.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      int64             `json:"user_id"`
	AccountID   *int64            `json:"account_id,omitempty"`
	Date        time.Time         `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Merchant    string            `json:"merchant"`
	Pending     bool              `json:"pending"`
	Source      TransactionSource `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}
