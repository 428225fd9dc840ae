package projection

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack-server/src/models"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestProjectAccumulationAndDistribution(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:         60,
		RetirementAge:      62,
		LifeExpectancy:     64,
		CurrentSavings:     dec(1000),
		AnnualContribution: dec(100),
		ExpectedReturn:     0.10,
	}
	proj, err := Project(plan, Adjustment{})
	require.NoError(t, err)

	require.Len(t, proj.Years, 4)
	assert.Equal(t, Accumulation, proj.Years[1].Phase)
	assert.Equal(t, Distribution, proj.Years[2].Phase)
	assert.Equal(t, "1200", proj.Years[0].EndBalance.String())
	assert.Equal(t, "1420", proj.BalanceAtRetirement.String())
	assert.Equal(t, "1718.2", proj.FinalBalance.String())
	assert.Equal(t, "200", proj.TotalContributions.String())
	assert.True(t, proj.TotalWithdrawals.IsZero())
	assert.True(t, proj.Sustainable)
	assert.Nil(t, proj.DepletionAge)
}

func TestProjectDepletion(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:              65,
		RetirementAge:           65,
		LifeExpectancy:          70,
		CurrentSavings:          dec(10000),
		DesiredRetirementIncome: dec(4000),
	}
	proj, err := Project(plan, Adjustment{})
	require.NoError(t, err)

	require.NotNil(t, proj.DepletionAge)
	assert.Equal(t, 67, *proj.DepletionAge)
	assert.False(t, proj.Sustainable)
	assert.Equal(t, "10000", proj.BalanceAtRetirement.String())
	for _, y := range proj.Years {
		assert.False(t, y.EndBalance.IsNegative(), "age %d", y.Age)
	}
	assert.True(t, proj.FinalBalance.IsZero())
}

func TestProjectIncomeGapGrowsWithInflation(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:              65,
		RetirementAge:           65,
		LifeExpectancy:          67,
		CurrentSavings:          dec(100000),
		InflationRate:           0.1,
		DesiredRetirementIncome: dec(4000),
		SocialSecurityIncome:    dec(1500),
		AdditionalIncome:        dec(500),
	}
	proj, err := Project(plan, Adjustment{})
	require.NoError(t, err)
	assert.Equal(t, "2000", proj.Years[0].Withdrawal.String())
	assert.Equal(t, "2200", proj.Years[1].Withdrawal.String())

	plan.AdjustForInflation = true
	proj, err = Project(plan, Adjustment{})
	require.NoError(t, err)
	assert.Equal(t, "2000", proj.Years[1].Withdrawal.String())
}

func TestProjectIncomeGapInflatesFromCurrentAge(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:              63,
		RetirementAge:           65,
		LifeExpectancy:          67,
		CurrentSavings:          dec(100000),
		InflationRate:           0.1,
		DesiredRetirementIncome: dec(1000),
	}
	proj, err := Project(plan, Adjustment{})
	require.NoError(t, err)
	require.Len(t, proj.Years, 4)
	assert.True(t, proj.Years[1].Withdrawal.IsZero())
	assert.Equal(t, "1210", proj.Years[2].Withdrawal.String())
	assert.Equal(t, "1331", proj.Years[3].Withdrawal.String())

	plan.AdjustForInflation = true
	proj, err = Project(plan, Adjustment{})
	require.NoError(t, err)
	assert.Equal(t, "1000", proj.Years[2].Withdrawal.String())
	assert.Equal(t, "1000", proj.Years[3].Withdrawal.String())
}

func TestValidateRejectsRunawayRates(t *testing.T) {
	plan := models.RetirementPlan{CurrentAge: 30, RetirementAge: 65, LifeExpectancy: 90, InflationRate: -1}
	assert.ErrorIs(t, Validate(plan), ErrInvalidPlan)

	plan.InflationRate = 0.03
	plan.ExpectedReturn = 1e6
	assert.ErrorIs(t, Validate(plan), ErrInvalidPlan)

	plan.ExpectedReturn = math.NaN()
	assert.ErrorIs(t, Validate(plan), ErrInvalidPlan)

	plan.ExpectedReturn = 0.07
	assert.NoError(t, Validate(plan))
}

func TestProjectNoDesiredIncomeNeverWithdraws(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:           50,
		RetirementAge:        55,
		LifeExpectancy:       90,
		CurrentSavings:       dec(250000),
		AnnualContribution:   dec(12000),
		ExpectedReturn:       0.07,
		PostRetirementReturn: 0.05,
		InflationRate:        0.03,
	}
	proj, err := Project(plan, Adjustment{})
	require.NoError(t, err)

	for _, y := range proj.Years {
		if y.Phase != Distribution {
			continue
		}
		assert.True(t, y.Withdrawal.IsZero())
		floor := y.StartBalance.Mul(dec(1.05)).Sub(dec(0.01))
		assert.True(t, y.EndBalance.GreaterThanOrEqual(floor), "age %d: %s < %s", y.Age, y.EndBalance, floor)
	}
}

func TestProjectLifeEvents(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:     30,
		RetirementAge:  40,
		LifeExpectancy: 45,
		CurrentSavings: decimal.Zero,
		LifeEvents: []models.LifeEvent{
			{Name: "bonus", YearOffset: 2, Type: models.LifeEventIncome, Amount: dec(1000),
				Recurring: true, RecurringAmount: dec(500), RecurringPeriod: 3},
			{Name: "car", YearOffset: 3, Type: models.LifeEventExpense, Amount: dec(200)},
		},
	}
	proj, err := Project(plan, Adjustment{})
	require.NoError(t, err)

	require.Len(t, proj.Years, 15)
	assert.Equal(t, "1000", proj.Years[2].LifeEventNet.String())
	assert.Equal(t, "-200", proj.Years[3].LifeEventNet.String())
	assert.True(t, proj.Years[4].LifeEventNet.IsZero())
	assert.Equal(t, "500", proj.Years[5].LifeEventNet.String())
	assert.Equal(t, "500", proj.Years[14].LifeEventNet.String())
	assert.Equal(t, "2800", proj.FinalBalance.String())
}

func TestValidate(t *testing.T) {
	base := models.RetirementPlan{CurrentAge: 30, RetirementAge: 65, LifeExpectancy: 90}
	require.NoError(t, Validate(base))

	bad := base
	bad.LifeExpectancy = 30
	assert.ErrorIs(t, Validate(bad), ErrInvalidPlan)

	bad = base
	bad.RetirementAge = 95
	assert.ErrorIs(t, Validate(bad), ErrInvalidPlan)

	bad = base
	bad.CurrentSavings = dec(-1)
	assert.ErrorIs(t, Validate(bad), ErrInvalidPlan)

	bad = base
	bad.LifeEvents = []models.LifeEvent{{Name: "lottery", Type: "windfall"}}
	assert.ErrorIs(t, Validate(bad), ErrInvalidPlan)

	_, err := Project(bad, Adjustment{})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestRunAllScenarios(t *testing.T) {
	plan := models.RetirementPlan{
		CurrentAge:              40,
		RetirementAge:           65,
		LifeExpectancy:          85,
		CurrentSavings:          dec(50000),
		AnnualContribution:      dec(10000),
		ContributionGrowthRate:  0.02,
		ExpectedReturn:          0.06,
		InflationRate:           0.025,
		AdjustForInflation:      true,
		DesiredRetirementIncome: dec(30000),
	}
	projs, err := DefaultPresets().RunAll(plan)
	require.NoError(t, err)
	require.Len(t, projs, 3)

	assert.Equal(t, Baseline, projs[0].Scenario)
	assert.Equal(t, Optimistic, projs[1].Scenario)
	assert.Equal(t, Pessimistic, projs[2].Scenario)
	assert.True(t, projs[1].BalanceAtRetirement.GreaterThan(projs[0].BalanceAtRetirement))
	assert.True(t, projs[0].BalanceAtRetirement.GreaterThan(projs[2].BalanceAtRetirement))

	_, err = DefaultPresets().Run(plan, "apocalyptic")
	assert.Error(t, err)
}

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario("")
	require.NoError(t, err)
	assert.Equal(t, Baseline, s)

	s, err = ParseScenario("pessimistic")
	require.NoError(t, err)
	assert.Equal(t, Pessimistic, s)

	_, err = ParseScenario("rosy")
	assert.Error(t, err)
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenarios:
  optimistic:
    return_offset: 0.03
    inflation_offset: -0.01
`), 0o600))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, Adjustment{ReturnOffset: 0.03, InflationOffset: -0.01}, presets[Optimistic])
	assert.Equal(t, DefaultPresets()[Pessimistic], presets[Pessimistic])

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("scenarios:\n  rosy: {}\n"), 0o600))
	_, err = LoadPresets(bad)
	assert.Error(t, err)

	_, err = LoadPresets(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestProjectGoal(t *testing.T) {
	asOf := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	goal := models.Goal{
		ID:            7,
		TargetAmount:  dec(1200),
		CurrentAmount: decimal.Zero,
		TargetDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	gp, err := ProjectGoal(goal, dec(100), 0, asOf)
	require.NoError(t, err)
	assert.Equal(t, 12, gp.MonthsToTarget)
	assert.Equal(t, 12, gp.MonthsUntilDeadline)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), gp.ProjectedDate)
	assert.Equal(t, "100", gp.RequiredMonthly.String())
	assert.Equal(t, "1200", gp.Remaining.String())
	assert.True(t, gp.OnTrack)

	gp, err = ProjectGoal(goal, dec(50), 0, asOf)
	require.NoError(t, err)
	assert.Equal(t, 24, gp.MonthsToTarget)
	assert.False(t, gp.OnTrack)
}

func TestProjectGoalWithReturn(t *testing.T) {
	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	goal := models.Goal{
		TargetAmount: dec(10000),
		TargetDate:   asOf.AddDate(1, 0, 0),
	}
	gp, err := ProjectGoal(goal, dec(800), 0.12, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 788.49, gp.RequiredMonthly.InexactFloat64(), 0.01)
	assert.LessOrEqual(t, gp.MonthsToTarget, 12)
	assert.True(t, gp.OnTrack)
}

func TestProjectGoalEdges(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	done := models.Goal{TargetAmount: dec(500), CurrentAmount: dec(600), TargetDate: asOf}
	gp, err := ProjectGoal(done, decimal.Zero, 0, asOf)
	require.NoError(t, err)
	assert.True(t, gp.OnTrack)
	assert.True(t, gp.Remaining.IsZero())
	assert.Equal(t, float64(100), gp.Progress)

	stuck := models.Goal{TargetAmount: dec(500), TargetDate: asOf.AddDate(0, 6, 0)}
	_, err = ProjectGoal(stuck, decimal.Zero, 0, asOf)
	assert.ErrorIs(t, err, ErrGoalUnreachable)

	overdue := models.Goal{TargetAmount: dec(500), CurrentAmount: dec(100), TargetDate: asOf.AddDate(0, -2, 0)}
	gp, err = ProjectGoal(overdue, dec(100), 0, asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, gp.MonthsUntilDeadline)
	assert.Equal(t, "400", gp.RequiredMonthly.String())
	assert.False(t, gp.OnTrack)
}
