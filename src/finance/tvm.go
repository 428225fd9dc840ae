package finance

import "math"

const MonthsPerYear = 12

// CompoundInterest returns principal * (1 + rate/compounds)^(compounds*years).
// A non-positive compounds value is treated as annual compounding.
func CompoundInterest(principal, rate, years float64, compounds int) float64 {
	if compounds <= 0 {
		compounds = 1
	}
	n := float64(compounds)
	return principal * math.Pow(1+rate/n, n*years)
}

// FutureValueWithContributions compounds principal monthly and adds an
// end-of-month contribution for years*12 periods.
func FutureValueWithContributions(principal, monthlyContribution, annualRate, years float64) float64 {
	months := years * MonthsPerYear
	if annualRate == 0 {
		return principal + monthlyContribution*months
	}
	r := annualRate / MonthsPerYear
	growth := math.Pow(1+r, months)
	return principal*growth + monthlyContribution*(growth-1)/r
}

func PresentValue(futureValue, rate, years float64) float64 {
	return futureValue / math.Pow(1+rate, years)
}

// InflationAdjustedValue expresses value in today's money after years of inflation.
func InflationAdjustedValue(value, inflationRate, years float64) float64 {
	return value / math.Pow(1+inflationRate, years)
}

// LoanPayment is the fixed monthly payment that retires principal over
// termYears. A zero rate falls back to straight-line repayment.
func LoanPayment(principal, annualRate, termYears float64) float64 {
	months := termYears * MonthsPerYear
	if annualRate == 0 {
		return principal / months
	}
	r := annualRate / MonthsPerYear
	growth := math.Pow(1+r, months)
	return principal * r * growth / (growth - 1)
}
