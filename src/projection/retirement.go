// Package projection runs year-by-year retirement simulations and monthly
// savings-goal projections.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"fintrack-server/src/finance"
	"fintrack-server/src/models"
)

var ErrInvalidPlan = errors.New("invalid retirement plan")

// Rates are fractions; the bounds keep compounding finite over a lifetime.
const (
	minRate = -0.9
	maxRate = 1.0
)

type Phase string

const (
	Accumulation Phase = "accumulation"
	Distribution Phase = "distribution"
)

// YearRow is one simulated year. Money is rounded to cents.
type YearRow struct {
	Age          int             `json:"age"`
	YearOffset   int             `json:"year_offset"`
	Phase        Phase           `json:"phase"`
	StartBalance decimal.Decimal `json:"start_balance"`
	Growth       decimal.Decimal `json:"growth"`
	Contribution decimal.Decimal `json:"contribution"`
	Withdrawal   decimal.Decimal `json:"withdrawal"`
	LifeEventNet decimal.Decimal `json:"life_event_net"`
	EndBalance   decimal.Decimal `json:"end_balance"`
}

type Projection struct {
	Scenario            Scenario        `json:"scenario"`
	Adjustment          Adjustment      `json:"adjustment"`
	EffectiveReturn     float64         `json:"effective_return"`
	Years               []YearRow       `json:"years"`
	BalanceAtRetirement decimal.Decimal `json:"balance_at_retirement"`
	FinalBalance        decimal.Decimal `json:"final_balance"`
	TotalContributions  decimal.Decimal `json:"total_contributions"`
	TotalWithdrawals    decimal.Decimal `json:"total_withdrawals"`
	DepletionAge        *int            `json:"depletion_age,omitempty"`
	Sustainable         bool            `json:"sustainable"`
}

func Validate(plan models.RetirementPlan) error {
	switch {
	case plan.CurrentAge < 0:
		return fmt.Errorf("%w: current age must not be negative", ErrInvalidPlan)
	case plan.LifeExpectancy <= plan.CurrentAge:
		return fmt.Errorf("%w: life expectancy must be greater than current age", ErrInvalidPlan)
	case plan.LifeExpectancy > 130:
		return fmt.Errorf("%w: life expectancy must be at most 130", ErrInvalidPlan)
	case plan.RetirementAge < 0 || plan.RetirementAge > plan.LifeExpectancy:
		return fmt.Errorf("%w: retirement age must be between 0 and life expectancy", ErrInvalidPlan)
	case plan.CurrentSavings.IsNegative():
		return fmt.Errorf("%w: current savings must not be negative", ErrInvalidPlan)
	}
	rates := map[string]float64{
		"expected return":          plan.ExpectedReturn,
		"post-retirement return":   plan.PostRetirementReturn,
		"inflation rate":           plan.InflationRate,
		"contribution growth rate": plan.ContributionGrowthRate,
	}
	for name, r := range rates {
		if math.IsNaN(r) || r <= minRate || r > maxRate {
			return fmt.Errorf("%w: %s must be between %.0f%% and %.0f%%", ErrInvalidPlan, name, minRate*100, maxRate*100)
		}
	}
	for _, ev := range plan.LifeEvents {
		if ev.Type != models.LifeEventIncome && ev.Type != models.LifeEventExpense {
			return fmt.Errorf("%w: life event %q has unknown type %q", ErrInvalidPlan, ev.Name, ev.Type)
		}
		if ev.YearOffset < 0 || ev.RecurringPeriod < 0 {
			return fmt.Errorf("%w: life event %q has a negative year", ErrInvalidPlan, ev.Name)
		}
	}
	return nil
}

// Run simulates the plan under the given scenario preset.
func (p Presets) Run(plan models.RetirementPlan, scenario Scenario) (*Projection, error) {
	adj, ok := p[scenario]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}
	proj, err := Project(plan, adj)
	if err != nil {
		return nil, err
	}
	proj.Scenario = scenario
	return proj, nil
}

// RunAll simulates every scenario in Scenarios order.
func (p Presets) RunAll(plan models.RetirementPlan) ([]*Projection, error) {
	out := make([]*Projection, 0, len(Scenarios))
	for _, s := range Scenarios {
		proj, err := p.Run(plan, s)
		if err != nil {
			return nil, err
		}
		out = append(out, proj)
	}
	return out, nil
}

// Project walks every year from CurrentAge until LifeExpectancy. Before
// RetirementAge the balance grows and receives contributions; afterwards it
// grows and pays out the desired income not covered by Social Security and
// other income. The balance is clamped at zero and the first age at which a
// withdrawal exhausts it is reported as DepletionAge.
func Project(plan models.RetirementPlan, adj Adjustment) (*Projection, error) {
	if err := Validate(plan); err != nil {
		return nil, err
	}

	inflation := plan.InflationRate + adj.InflationOffset
	preReturn := effectiveRate(plan.ExpectedReturn+adj.ReturnOffset, inflation, plan.AdjustForInflation)
	postNominal := plan.PostRetirementReturn
	if postNominal == 0 {
		postNominal = plan.ExpectedReturn
	}
	postReturn := effectiveRate(postNominal+adj.ReturnOffset, inflation, plan.AdjustForInflation)
	contributionGrowth := plan.ContributionGrowthRate + adj.ContributionGrowthOffset

	// The income gap is measured in today's money. Without inflation
	// adjustment the simulation runs in nominal terms, so each withdrawal is
	// the gap grown by prices from CurrentAge onwards.
	gap := plan.DesiredRetirementIncome.Sub(plan.SocialSecurityIncome).Sub(plan.AdditionalIncome)
	gap = decimal.Max(gap, decimal.Zero)

	proj := &Projection{
		Adjustment:          adj,
		EffectiveReturn:     preReturn,
		BalanceAtRetirement: plan.CurrentSavings,
		TotalContributions:  decimal.Zero,
		TotalWithdrawals:    decimal.Zero,
	}

	balance := plan.CurrentSavings
	for age := plan.CurrentAge; age < plan.LifeExpectancy; age++ {
		offset := age - plan.CurrentAge
		row := YearRow{
			Age:          age,
			YearOffset:   offset,
			StartBalance: balance,
			Contribution: decimal.Zero,
			Withdrawal:   decimal.Zero,
			LifeEventNet: lifeEventNet(plan.LifeEvents, offset),
		}

		if age < plan.RetirementAge {
			row.Phase = Accumulation
			row.Growth = finance.RoundCents(balance.Mul(decimal.NewFromFloat(preReturn)))
			row.Contribution = finance.RoundCents(plan.AnnualContribution.Mul(growthFactor(contributionGrowth, offset)))
		} else {
			if age == plan.RetirementAge {
				proj.BalanceAtRetirement = balance
			}
			row.Phase = Distribution
			row.Growth = finance.RoundCents(balance.Mul(decimal.NewFromFloat(postReturn)))
			withdrawal := gap
			if !plan.AdjustForInflation {
				withdrawal = gap.Mul(growthFactor(inflation, offset))
			}
			row.Withdrawal = finance.RoundCents(withdrawal)
		}

		end := balance.Add(row.Growth).Add(row.Contribution).Sub(row.Withdrawal).Add(row.LifeEventNet)
		if !end.IsPositive() {
			end = decimal.Zero
			if row.Phase == Distribution && row.Withdrawal.IsPositive() && proj.DepletionAge == nil {
				depleted := age
				proj.DepletionAge = &depleted
			}
		}
		row.EndBalance = end
		balance = end

		proj.TotalContributions = proj.TotalContributions.Add(row.Contribution)
		proj.TotalWithdrawals = proj.TotalWithdrawals.Add(row.Withdrawal)
		proj.Years = append(proj.Years, row)
	}

	if plan.RetirementAge >= plan.LifeExpectancy {
		proj.BalanceAtRetirement = balance
	}
	proj.FinalBalance = balance
	proj.Sustainable = proj.DepletionAge == nil
	return proj, nil
}

// effectiveRate converts a nominal return to a real one when requested.
func effectiveRate(nominal, inflation float64, adjusted bool) float64 {
	if !adjusted {
		return nominal
	}
	return (1+nominal)/(1+inflation) - 1
}

func growthFactor(rate float64, years int) decimal.Decimal {
	return decimal.NewFromFloat(math.Pow(1+rate, float64(years)))
}

// lifeEventNet sums the signed amounts of every event landing on offset.
func lifeEventNet(events []models.LifeEvent, offset int) decimal.Decimal {
	net := decimal.Zero
	for _, ev := range events {
		amount, ok := eventAmount(ev, offset)
		if !ok {
			continue
		}
		if ev.Type == models.LifeEventExpense {
			net = net.Sub(amount)
		} else {
			net = net.Add(amount)
		}
	}
	return net
}

func eventAmount(ev models.LifeEvent, offset int) (decimal.Decimal, bool) {
	if offset == ev.YearOffset {
		return ev.Amount, true
	}
	if !ev.Recurring || offset < ev.YearOffset {
		return decimal.Zero, false
	}
	period := ev.RecurringPeriod
	if period <= 0 {
		period = 1
	}
	if (offset-ev.YearOffset)%period != 0 {
		return decimal.Zero, false
	}
	if ev.RecurringAmount.IsZero() {
		return ev.Amount, true
	}
	return ev.RecurringAmount, true
}
