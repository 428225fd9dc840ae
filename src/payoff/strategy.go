// Package payoff orders debts by a repayment strategy and simulates paying
// them down month by month with the freed-up payments rolling forward.
package payoff

import (
	"fmt"
	"sort"

	"fintrack-server/src/models"
)

type Strategy string

const (
	// Avalanche pays the highest interest rate first.
	Avalanche Strategy = "avalanche"
	// Snowball pays the smallest balance first.
	Snowball Strategy = "snowball"
	// HighestBalance pays the largest balance first.
	HighestBalance Strategy = "highestBalance"
	// Custom follows a caller-supplied order of debt IDs.
	Custom Strategy = "custom"
)

// Strategies lists the built-in orderings compared by Compare.
var Strategies = []Strategy{Avalanche, Snowball, HighestBalance}

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Avalanche, Snowball, HighestBalance, Custom:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Order returns a copy of debts in the priority order of the strategy. Ties
// fall back to the other key and then to ID, so the result is stable for a
// given input. For Custom, IDs missing from customOrder follow in snowball order.
func Order(debts []models.DebtAccount, strategy Strategy, customOrder []int64) ([]models.DebtAccount, error) {
	out := make([]models.DebtAccount, len(debts))
	copy(out, debts)

	switch strategy {
	case Avalanche:
		sort.SliceStable(out, func(i, j int) bool { return byRateDesc(out[i], out[j]) })
	case Snowball:
		sort.SliceStable(out, func(i, j int) bool { return byBalanceAsc(out[i], out[j]) })
	case HighestBalance:
		sort.SliceStable(out, func(i, j int) bool { return byBalanceDesc(out[i], out[j]) })
	case Custom:
		rank := make(map[int64]int, len(customOrder))
		for i, id := range customOrder {
			if _, dup := rank[id]; !dup {
				rank[id] = i
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			ri, iok := rank[out[i].ID]
			rj, jok := rank[out[j].ID]
			switch {
			case iok && jok:
				return ri < rj
			case iok != jok:
				return iok
			}
			return byBalanceAsc(out[i], out[j])
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return out, nil
}

func byRateDesc(a, b models.DebtAccount) bool {
	if a.InterestRate != b.InterestRate {
		return a.InterestRate > b.InterestRate
	}
	if !a.CurrentBalance.Equal(b.CurrentBalance) {
		return a.CurrentBalance.LessThan(b.CurrentBalance)
	}
	return a.ID < b.ID
}

func byBalanceAsc(a, b models.DebtAccount) bool {
	if !a.CurrentBalance.Equal(b.CurrentBalance) {
		return a.CurrentBalance.LessThan(b.CurrentBalance)
	}
	if a.InterestRate != b.InterestRate {
		return a.InterestRate > b.InterestRate
	}
	return a.ID < b.ID
}

func byBalanceDesc(a, b models.DebtAccount) bool {
	if !a.CurrentBalance.Equal(b.CurrentBalance) {
		return a.CurrentBalance.GreaterThan(b.CurrentBalance)
	}
	if a.InterestRate != b.InterestRate {
		return a.InterestRate > b.InterestRate
	}
	return a.ID < b.ID
}
