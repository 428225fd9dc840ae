// Package budgeting derives monthly spending figures for budgets from
// transactions. Nothing here touches the database.
package budgeting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack-server/src/models"
)

const MonthLayout = "2006-01"

var ErrInvalidBudget = errors.New("invalid budget")

// MonthRange returns the half-open interval [start, end) covering month.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Validate checks category names are unique and no limit is negative.
func Validate(b models.Budget) error {
	if _, _, err := MonthRange(b.Month); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}
	if b.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total amount must not be negative", ErrInvalidBudget)
	}
	seen := make(map[string]bool, len(b.Categories))
	for _, c := range b.Categories {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			return fmt.Errorf("%w: category name is required", ErrInvalidBudget)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidBudget, c.Name)
		}
		seen[key] = true
		if c.Limit.IsNegative() {
			return fmt.Errorf("%w: limit for %q must not be negative", ErrInvalidBudget, c.Name)
		}
	}
	return nil
}

// ApplySpending fills Spent and Remaining on every category from the expense
// transactions dated inside the budget's month, matching categories
// case-insensitively. TotalSpent covers all of the month's expenses,
// including those in categories the budget does not list.
func ApplySpending(b *models.Budget, txns []models.Transaction) error {
	start, end, err := MonthRange(b.Month)
	if err != nil {
		return err
	}

	byCategory := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, t := range txns {
		if !t.IsExpense() || t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		spent := t.Amount.Neg()
		key := strings.ToLower(strings.TrimSpace(t.Category))
		byCategory[key] = byCategory[key].Add(spent)
		total = total.Add(spent)
	}

	for i := range b.Categories {
		c := &b.Categories[i]
		c.Spent = byCategory[strings.ToLower(strings.TrimSpace(c.Name))]
		c.Remaining = c.Limit.Sub(c.Spent)
	}
	b.TotalSpent = total
	return nil
}

// OverBudget lists the categories whose spending exceeds their limit.
func OverBudget(b models.Budget) []string {
	var over []string
	for _, c := range b.Categories {
		if c.Spent.GreaterThan(c.Limit) {
			over = append(over, c.Name)
		}
	}
	return over
}
