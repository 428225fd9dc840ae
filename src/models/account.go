package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a bank account synced from an aggregation item.
type Account struct {
	ID               int64            `json:"id"`
	ItemID           int64            `json:"item_id"`
	AccountID        string           `json:"account_id"`
	Name             string           `json:"name"`
	OfficialName     string           `json:"official_name"`
	Mask             string           `json:"mask"`
	Type             string           `json:"type"`
	Subtype          string           `json:"subtype"`
	CurrentBalance   decimal.Decimal  `json:"current_balance"`
	AvailableBalance *decimal.Decimal `json:"available_balance"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IsLiability reports whether the balance is money owed rather than held.
func (a Account) IsLiability() bool {
	return a.Type == "credit" || a.Type == "loan"
}
