package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtAccount is a liability tracked for payoff planning. InterestRate is an
// annual percentage (19.99 means 19.99%).
type DebtAccount struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	OriginalBalance decimal.Decimal `json:"original_balance"`
	InterestRate    float64         `json:"interest_rate"`
	MinimumPayment  decimal.Decimal `json:"minimum_payment"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PaidOffPercent is the share of the original balance already repaid.
func (d DebtAccount) PaidOffPercent() float64 {
	if !d.OriginalBalance.IsPositive() {
		return 0
	}
	paid := d.OriginalBalance.Sub(d.CurrentBalance)
	return paid.Div(d.OriginalBalance).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
