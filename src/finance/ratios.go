package finance

// NetWorth is total assets minus total liabilities.
func NetWorth(assets, liabilities []float64) float64 {
	return Sum(assets) - Sum(liabilities)
}

// DebtToIncomeRatio returns monthly debt payments as a percentage of monthly
// income. Non-positive income yields 0.
func DebtToIncomeRatio(monthlyDebtPayments []float64, monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return 0
	}
	return Sum(monthlyDebtPayments) / monthlyIncome * 100
}

// ROI in percent. A zero initial investment yields 0.
func ROI(currentValue, initialInvestment float64) float64 {
	if initialInvestment == 0 {
		return 0
	}
	return (currentValue - initialInvestment) / initialInvestment * 100
}

func InvestmentReturn(currentValue, initialInvestment float64) float64 {
	return currentValue - initialInvestment
}
