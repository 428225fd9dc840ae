package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Investment struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Name          string          `json:"name"`
	AssetType     string          `json:"asset_type"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PurchaseValue decimal.Decimal `json:"purchase_value"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Return is the unrealized gain: current value minus what was paid.
func (i Investment) Return() decimal.Decimal {
	return i.CurrentValue.Sub(i.PurchaseValue)
}
