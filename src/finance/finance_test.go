package finance

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumAverage(t *testing.T) {
	assert.Equal(t, 6.0, Sum([]float64{1, 2, 3}))
	assert.Equal(t, 2.0, Average([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, Average(nil))
}

func TestWeightedAverage(t *testing.T) {
	got, err := WeightedAverage([]float64{1, 2, 3}, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, Average([]float64{1, 2, 3}), got)
	assert.Equal(t, 2.0, got)

	got, err = WeightedAverage([]float64{10, 20}, []float64{3, 1})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, got, 1e-9)

	got, err = WeightedAverage([]float64{10, 20}, []float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = WeightedAverage([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestPercentageChange(t *testing.T) {
	assert.InDelta(t, 50.0, PercentageChange(100, 150), 1e-9)
	assert.InDelta(t, -25.0, PercentageChange(200, 150), 1e-9)
	assert.InDelta(t, 50.0, PercentageChange(-100, -50), 1e-9)
	assert.Equal(t, 0.0, PercentageChange(0, 10))
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{2, 3, 4}, MovingAverage([]float64{1, 2, 3, 4, 5}, 3))
	assert.Empty(t, MovingAverage([]float64{1, 2}, 3))
	assert.Empty(t, MovingAverage([]float64{1, 2}, 0))
}

func TestCompoundInterest(t *testing.T) {
	for _, p := range []float64{0, 1, 1000, -50} {
		for _, r := range []float64{0, 0.05, 0.5} {
			assert.Equal(t, p, CompoundInterest(p, r, 0, 12), "P=%v r=%v", p, r)
		}
	}
	assert.InDelta(t, 1100.0, CompoundInterest(1000, 0.1, 1, 1), 1e-9)
	assert.InDelta(t, 1104.7130674, CompoundInterest(1000, 0.1, 1, 12), 1e-6)
	assert.InDelta(t, 1100.0, CompoundInterest(1000, 0.1, 1, 0), 1e-9, "zero compounds means annual")
	assert.True(t, math.IsNaN(CompoundInterest(math.NaN(), 0.1, 1, 1)))
}

func TestFutureValueWithContributions(t *testing.T) {
	assert.InDelta(t, 1000+100*24, FutureValueWithContributions(1000, 100, 0, 2), 1e-9)
	// 12 contributions of 100 at 12%/yr compounded monthly.
	assert.InDelta(t, 1268.250301, FutureValueWithContributions(0, 100, 0.12, 1), 1e-6)
}

func TestPresentAndInflationAdjusted(t *testing.T) {
	assert.InDelta(t, 1000.0, PresentValue(1100, 0.1, 1), 1e-9)
	assert.InDelta(t, 100.0, InflationAdjustedValue(100*math.Pow(1.03, 10), 0.03, 10), 1e-9)
}

func TestLoanPayment(t *testing.T) {
	tests := []struct {
		principal, rate, years float64
		want                   float64
	}{
		{12000, 0, 1, 1000},
		{36000, 0, 3, 1000},
		{100000, 0.06, 30, 599.5505},
		{20000, 0.05, 5, 377.4246},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, LoanPayment(tt.principal, tt.rate, tt.years), 1e-3,
			"LoanPayment(%v, %v, %v)", tt.principal, tt.rate, tt.years)
	}
	assert.Equal(t, 100000.0/(30*12), LoanPayment(100000, 0, 30))
}

func TestAmortizationSchedule(t *testing.T) {
	rows := AmortizationSchedule(decimal.NewFromInt(100000), 0.06, 30)
	require.Len(t, rows, 360)

	first := rows[0]
	assert.Equal(t, "500", first.Interest.String())
	assert.Equal(t, "599.55", first.Payment.String())

	last := rows[len(rows)-1]
	assert.True(t, last.RemainingBalance.IsZero(), "final balance %s", last.RemainingBalance)

	principal := decimal.Zero
	for _, r := range rows {
		assert.False(t, r.RemainingBalance.IsNegative(), "month %d", r.Month)
		principal = principal.Add(r.Principal)
	}
	assert.Equal(t, "100000", principal.String())
	assert.InDelta(t, 115838.19, last.TotalInterest.InexactFloat64(), 5)
}

func TestAmortizationScheduleZeroRate(t *testing.T) {
	rows := AmortizationSchedule(decimal.NewFromInt(12000), 0, 1)
	require.Len(t, rows, 12)
	for _, r := range rows {
		assert.Equal(t, "1000", r.Payment.String())
		assert.True(t, r.Interest.IsZero())
	}
	assert.True(t, rows[11].RemainingBalance.IsZero())
}

func TestAmortizationScheduleEmpty(t *testing.T) {
	assert.Empty(t, AmortizationSchedule(decimal.Zero, 0.05, 10))
	assert.Empty(t, AmortizationSchedule(decimal.NewFromInt(1000), 0.05, 0))
	assert.Empty(t, AmortizationSchedule(decimal.NewFromInt(1000), 0.05, MaxTermYears+1))
	assert.Empty(t, AmortizationSchedule(decimal.NewFromInt(1000), 0.05, 768614336404564651))
	assert.Empty(t, AmortizationSchedule(decimal.NewFromInt(1000), math.MaxFloat64, 1))
	longest := AmortizationSchedule(decimal.NewFromInt(1000), 0.05, MaxTermYears)
	assert.NotEmpty(t, longest)
	assert.LessOrEqual(t, len(longest), MaxTermYears*MonthsPerYear)
}

func TestIRR(t *testing.T) {
	got, err := IRR([]float64{-100, 110})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, got, 1e-4)

	got, err = IRR([]float64{-1000, 300, 400, 500})
	require.NoError(t, err)
	assert.InDelta(t, 0.0890, got, 1e-3)
	assert.InDelta(t, 0.0, NPV(got, []float64{-1000, 300, 400, 500}), 0.5)
}

func TestIRRNoConvergence(t *testing.T) {
	_, err := IRR([]float64{100, 100})
	assert.ErrorIs(t, err, ErrIRRNoConvergence)

	_, err = IRR([]float64{-1000, 300, 400, 500}, WithMaxIterations(1))
	assert.ErrorIs(t, err, ErrIRRNoConvergence)

	_, err = IRR([]float64{-100})
	assert.ErrorIs(t, err, ErrIRRNoConvergence)
}

func TestRatios(t *testing.T) {
	assert.Equal(t, 250.0, NetWorth([]float64{100, 200}, []float64{50}))
	assert.InDelta(t, 30.0, DebtToIncomeRatio([]float64{1000, 500}, 5000), 1e-9)
	assert.Equal(t, 0.0, DebtToIncomeRatio([]float64{1000}, 0))
	assert.InDelta(t, 25.0, ROI(1250, 1000), 1e-9)
	assert.Equal(t, 0.0, ROI(1250, 0))
	assert.Equal(t, 250.0, InvestmentReturn(1250, 1000))
}
