package projection

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fintrack-server/src/finance"
	"fintrack-server/src/models"
)

// maxGoalMonths bounds the search for a completion date at 100 years.
const maxGoalMonths = 1200

var ErrGoalUnreachable = errors.New("goal is not reachable with the given contribution")

type GoalProjection struct {
	GoalID              int64           `json:"goal_id"`
	Progress            float64         `json:"progress"`
	Remaining           decimal.Decimal `json:"remaining"`
	MonthsToTarget      int             `json:"months_to_target"`
	ProjectedDate       time.Time       `json:"projected_date"`
	MonthsUntilDeadline int             `json:"months_until_deadline"`
	RequiredMonthly     decimal.Decimal `json:"required_monthly"`
	OnTrack             bool            `json:"on_track"`
}

// ProjectGoal estimates when a goal is reached if monthlyContribution is
// saved at the end of every month and the balance earns annualReturn,
// compounded monthly. It also reports the contribution needed to hit the
// target exactly on the goal's TargetDate.
func ProjectGoal(goal models.Goal, monthlyContribution decimal.Decimal, annualReturn float64, asOf time.Time) (*GoalProjection, error) {
	remaining := decimal.Max(goal.TargetAmount.Sub(goal.CurrentAmount), decimal.Zero)
	gp := &GoalProjection{
		GoalID:              goal.ID,
		Progress:            goal.Progress(),
		Remaining:           remaining,
		ProjectedDate:       asOf,
		MonthsUntilDeadline: monthsBetween(asOf, goal.TargetDate),
		RequiredMonthly:     decimal.Zero,
	}
	if remaining.IsZero() {
		gp.OnTrack = true
		return gp, nil
	}

	gp.RequiredMonthly = requiredMonthly(goal, annualReturn, gp.MonthsUntilDeadline)

	months, err := monthsToTarget(goal, monthlyContribution, annualReturn)
	if err != nil {
		return gp, err
	}
	gp.MonthsToTarget = months
	gp.ProjectedDate = asOf.AddDate(0, months, 0)
	gp.OnTrack = months <= gp.MonthsUntilDeadline
	return gp, nil
}

func monthsToTarget(goal models.Goal, contribution decimal.Decimal, annualReturn float64) (int, error) {
	rate := decimal.NewFromFloat(annualReturn).Div(decimal.NewFromInt(finance.MonthsPerYear))
	balance := goal.CurrentAmount
	for month := 1; month <= maxGoalMonths; month++ {
		balance = finance.RoundCents(balance.Add(balance.Mul(rate))).Add(contribution)
		if balance.GreaterThanOrEqual(goal.TargetAmount) {
			return month, nil
		}
	}
	return 0, ErrGoalUnreachable
}

// requiredMonthly inverts the future value of an ordinary annuity. With no
// months left the whole remaining amount is due now.
func requiredMonthly(goal models.Goal, annualReturn float64, months int) decimal.Decimal {
	target := goal.TargetAmount.InexactFloat64()
	current := goal.CurrentAmount.InexactFloat64()
	if months <= 0 {
		return finance.RoundCents(decimal.NewFromFloat(math.Max(target-current, 0)))
	}

	n := float64(months)
	var pmt float64
	if annualReturn == 0 {
		pmt = (target - current) / n
	} else {
		r := annualReturn / finance.MonthsPerYear
		growth := math.Pow(1+r, n)
		pmt = (target - current*growth) * r / (growth - 1)
	}
	return finance.RoundCents(decimal.NewFromFloat(math.Max(pmt, 0)))
}

// monthsBetween counts whole calendar months from a to b, never negative.
func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
