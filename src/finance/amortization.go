package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// AmortizationRow is one month of a loan schedule. Money is rounded to cents.
type AmortizationRow struct {
	Month            int             `json:"month"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	TotalInterest    decimal.Decimal `json:"total_interest"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// MaxTermYears bounds loan terms accepted by AmortizationSchedule.
const MaxTermYears = 100

// AmortizationSchedule splits every payment of a fixed-rate loan into
// principal and interest. The last row settles the exact remaining balance,
// so RemainingBalance ends at zero and never goes negative. Terms outside
// 1..MaxTermYears, or a rate whose payment overflows, yield an empty
// schedule.
func AmortizationSchedule(principal decimal.Decimal, annualRate float64, termYears int) []AmortizationRow {
	if termYears <= 0 || termYears > MaxTermYears || !principal.IsPositive() {
		return []AmortizationRow{}
	}
	months := termYears * MonthsPerYear

	raw := LoanPayment(principal.InexactFloat64(), annualRate, float64(termYears))
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return []AmortizationRow{}
	}
	payment := RoundCents(decimal.NewFromFloat(raw))
	monthlyRate := decimal.NewFromFloat(annualRate).Div(decimal.NewFromInt(MonthsPerYear))

	rows := make([]AmortizationRow, 0, months)
	balance := principal
	totalInterest := decimal.Zero
	for month := 1; month <= months && balance.IsPositive(); month++ {
		interest := RoundCents(balance.Mul(monthlyRate))
		due := balance.Add(interest)
		pay := payment
		if month == months || due.LessThanOrEqual(pay) {
			pay = due
		}
		principalPaid := pay.Sub(interest)
		balance = balance.Sub(principalPaid)
		totalInterest = totalInterest.Add(interest)

		rows = append(rows, AmortizationRow{
			Month:            month,
			Payment:          pay,
			Principal:        principalPaid,
			Interest:         interest,
			TotalInterest:    totalInterest,
			RemainingBalance: balance,
		})
	}
	return rows
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
