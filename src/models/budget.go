package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetCategory carries a spending limit. Spent is derived from the month's
// transactions whenever a budget is read and is never persisted.
type BudgetCategory struct {
	Name      string          `json:"name"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Budget is one user's plan for a calendar month ("2006-01").
type Budget struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	Month       string           `json:"month"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Categories  []BudgetCategory `json:"categories"`
	TotalSpent  decimal.Decimal  `json:"total_spent"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
