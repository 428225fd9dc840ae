package handlers

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack-server/src/finance"
	"fintrack-server/src/models"
)

type NetWorthSummary struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	NetWorth    decimal.Decimal `json:"net_worth"`
	Cash        decimal.Decimal `json:"cash"`
	Investments decimal.Decimal `json:"investments"`
	Debts       decimal.Decimal `json:"debts"`
}

// BuildNetWorth totals linked accounts, investments and tracked debts.
// Liability accounts count their balance as owed regardless of sign.
func BuildNetWorth(accounts []models.Account, investments []models.Investment, debts []models.DebtAccount) NetWorthSummary {
	s := NetWorthSummary{
		Cash:        decimal.Zero,
		Investments: decimal.Zero,
		Debts:       decimal.Zero,
	}
	var assets, liabilities []float64
	accountDebt := decimal.Zero
	for _, a := range accounts {
		if a.IsLiability() {
			accountDebt = accountDebt.Add(a.CurrentBalance.Abs())
			liabilities = append(liabilities, a.CurrentBalance.Abs().InexactFloat64())
			continue
		}
		s.Cash = s.Cash.Add(a.CurrentBalance)
		assets = append(assets, a.CurrentBalance.InexactFloat64())
	}
	for _, inv := range investments {
		s.Investments = s.Investments.Add(inv.CurrentValue)
		assets = append(assets, inv.CurrentValue.InexactFloat64())
	}
	for _, d := range debts {
		s.Debts = s.Debts.Add(d.CurrentBalance)
		liabilities = append(liabilities, d.CurrentBalance.InexactFloat64())
	}

	s.Assets = s.Cash.Add(s.Investments)
	s.Liabilities = s.Debts.Add(accountDebt)
	s.NetWorth = finance.RoundCents(decimal.NewFromFloat(finance.NetWorth(assets, liabilities)))
	return s
}

type AllocationSlice struct {
	AssetType string          `json:"asset_type"`
	Value     decimal.Decimal `json:"value"`
	Percent   float64         `json:"percent"`
}

type InvestmentSummary struct {
	TotalValue  decimal.Decimal `json:"total_value"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	TotalReturn decimal.Decimal `json:"total_return"`
	ROI         float64         `json:"roi"`
	// WeightedROI averages each holding's ROI weighted by its cost.
	WeightedROI float64           `json:"weighted_roi"`
	Allocation  []AllocationSlice `json:"allocation"`
}

func BuildInvestmentSummary(investments []models.Investment) (InvestmentSummary, error) {
	s := InvestmentSummary{TotalValue: decimal.Zero, TotalCost: decimal.Zero, Allocation: []AllocationSlice{}}
	byType := map[string]decimal.Decimal{}
	rois := make([]float64, 0, len(investments))
	costs := make([]float64, 0, len(investments))
	for _, inv := range investments {
		s.TotalValue = s.TotalValue.Add(inv.CurrentValue)
		s.TotalCost = s.TotalCost.Add(inv.PurchaseValue)
		byType[inv.AssetType] = byType[inv.AssetType].Add(inv.CurrentValue)
		rois = append(rois, finance.ROI(inv.CurrentValue.InexactFloat64(), inv.PurchaseValue.InexactFloat64()))
		costs = append(costs, inv.PurchaseValue.InexactFloat64())
	}
	s.TotalReturn = s.TotalValue.Sub(s.TotalCost)
	s.ROI = finance.ROI(s.TotalValue.InexactFloat64(), s.TotalCost.InexactFloat64())

	weighted, err := finance.WeightedAverage(rois, costs)
	if err != nil {
		return s, err
	}
	s.WeightedROI = weighted

	total := s.TotalValue.InexactFloat64()
	for assetType, value := range byType {
		slice := AllocationSlice{AssetType: assetType, Value: value}
		if total > 0 {
			slice.Percent = value.InexactFloat64() / total * 100
		}
		s.Allocation = append(s.Allocation, slice)
	}
	sort.Slice(s.Allocation, func(i, j int) bool {
		if !s.Allocation[i].Value.Equal(s.Allocation[j].Value) {
			return s.Allocation[i].Value.GreaterThan(s.Allocation[j].Value)
		}
		return s.Allocation[i].AssetType < s.Allocation[j].AssetType
	})
	return s, nil
}

type GoalStatus struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Progress   float64 `json:"progress"`
	DaysToGoal int     `json:"days_to_goal"`
}

type Dashboard struct {
	NetWorth      NetWorthSummary   `json:"net_worth"`
	DebtToIncome  float64           `json:"debt_to_income"`
	MinimumDue    decimal.Decimal   `json:"minimum_due"`
	Investments   InvestmentSummary `json:"investments"`
	Goals         []GoalStatus      `json:"goals"`
	AverageGoal   float64           `json:"average_goal_progress"`
	MonthlyIncome float64           `json:"monthly_income"`
}
