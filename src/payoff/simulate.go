package payoff

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack-server/src/finance"
	"fintrack-server/src/models"
)

// MaxMonths caps every simulation at 50 years.
const MaxMonths = 600

var (
	ErrUnknownStrategy = errors.New("unknown payoff strategy")
	ErrNoDebts         = errors.New("no debts with a positive balance")
	// ErrNegativeAmortization means the monthly budget cannot even cover the
	// interest accruing on the debts, so balances would grow forever.
	ErrNegativeAmortization = errors.New("monthly payments do not cover accruing interest")
	ErrHorizonExceeded      = fmt.Errorf("debts not paid off within %d months", MaxMonths)
)

// Options configures one simulation run.
type Options struct {
	Strategy     Strategy
	ExtraPayment decimal.Decimal
	CustomOrder  []int64
	// StartDate anchors payoff dates; month 1 is one month after it. A zero
	// StartDate leaves all dates zero.
	StartDate time.Time
}

type DebtResult struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	PayoffMonth  int             `json:"payoff_month"`
	PayoffDate   time.Time       `json:"payoff_date"`
	InterestPaid decimal.Decimal `json:"interest_paid"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

type Payment struct {
	DebtID           int64           `json:"debt_id"`
	Payment          decimal.Decimal `json:"payment"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type MonthSnapshot struct {
	Month     int             `json:"month"`
	Date      time.Time       `json:"date"`
	Payments  []Payment       `json:"payments"`
	TotalPaid decimal.Decimal `json:"total_paid"`
}

// Baseline is the minimum-payment-only outcome used for comparison.
type Baseline struct {
	Months        int             `json:"months"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
}

type Plan struct {
	Strategy      Strategy        `json:"strategy"`
	Order         []int64         `json:"order"`
	Debts         []DebtResult    `json:"debts"`
	Months        int             `json:"months"`
	PayoffDate    time.Time       `json:"payoff_date"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	Schedule      []MonthSnapshot `json:"schedule"`
	Baseline      *Baseline       `json:"baseline,omitempty"`
	BaselineError string          `json:"baseline_error,omitempty"`
	InterestSaved decimal.Decimal `json:"interest_saved"`
	MonthsSaved   int             `json:"months_saved"`
}

type debtState struct {
	debt         models.DebtAccount
	monthlyRate  decimal.Decimal
	balance      decimal.Decimal
	interestPaid decimal.Decimal
	totalPaid    decimal.Decimal
	paidMonth    int
}

func newStates(debts []models.DebtAccount) []*debtState {
	states := make([]*debtState, 0, len(debts))
	for _, d := range debts {
		if !d.CurrentBalance.IsPositive() {
			continue
		}
		states = append(states, &debtState{
			debt:         d,
			monthlyRate:  decimal.NewFromFloat(d.InterestRate).Div(decimal.NewFromInt(1200)),
			balance:      d.CurrentBalance,
			interestPaid: decimal.Zero,
			totalPaid:    decimal.Zero,
		})
	}
	return states
}

func (s *debtState) open() bool { return s.balance.IsPositive() }

// accrue adds one month of interest to the balance and returns it.
func (s *debtState) accrue() decimal.Decimal {
	interest := finance.RoundCents(s.balance.Mul(s.monthlyRate))
	s.balance = s.balance.Add(interest)
	s.interestPaid = s.interestPaid.Add(interest)
	return interest
}

// pay applies up to amount and returns what was actually used.
func (s *debtState) pay(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	used := decimal.Min(amount, s.balance)
	s.balance = s.balance.Sub(used)
	s.totalPaid = s.totalPaid.Add(used)
	return used
}

// Simulate runs the strategy until every balance reaches zero.
func Simulate(debts []models.DebtAccount, opts Options) (*Plan, error) {
	ordered, err := Order(debts, opts.Strategy, opts.CustomOrder)
	if err != nil {
		return nil, err
	}
	states := newStates(ordered)
	if len(states) == 0 {
		return nil, ErrNoDebts
	}

	extra := decimal.Max(opts.ExtraPayment, decimal.Zero)
	budget := extra
	firstInterest := decimal.Zero
	for _, s := range states {
		budget = budget.Add(s.debt.MinimumPayment)
		firstInterest = firstInterest.Add(finance.RoundCents(s.balance.Mul(s.monthlyRate)))
	}
	if budget.LessThanOrEqual(firstInterest) {
		return nil, ErrNegativeAmortization
	}

	plan := &Plan{
		Strategy:      opts.Strategy,
		MonthlyBudget: budget,
		TotalInterest: decimal.Zero,
		TotalPaid:     decimal.Zero,
	}
	for _, s := range states {
		plan.Order = append(plan.Order, s.debt.ID)
	}

	for month := 1; ; month++ {
		if month > MaxMonths {
			return nil, ErrHorizonExceeded
		}
		snapshot := MonthSnapshot{Month: month, Date: monthDate(opts.StartDate, month), TotalPaid: decimal.Zero}
		interest := make([]decimal.Decimal, len(states))
		paid := make([]decimal.Decimal, len(states))

		for i, s := range states {
			if s.open() {
				interest[i] = s.accrue()
			}
		}

		// Minimums first, then the rest of the budget (extra plus minimums
		// freed by debts already paid off) cascades down the priority order.
		remaining := budget
		for i, s := range states {
			if s.open() {
				used := s.pay(decimal.Min(s.debt.MinimumPayment, remaining))
				paid[i] = paid[i].Add(used)
				remaining = remaining.Sub(used)
			}
		}
		for i, s := range states {
			if !remaining.IsPositive() {
				break
			}
			if s.open() {
				used := s.pay(remaining)
				paid[i] = paid[i].Add(used)
				remaining = remaining.Sub(used)
			}
		}

		allClosed := true
		for i, s := range states {
			if !paid[i].IsZero() || !interest[i].IsZero() {
				snapshot.Payments = append(snapshot.Payments, Payment{
					DebtID:           s.debt.ID,
					Payment:          paid[i],
					Interest:         interest[i],
					RemainingBalance: s.balance,
				})
				snapshot.TotalPaid = snapshot.TotalPaid.Add(paid[i])
			}
			if s.open() {
				allClosed = false
			} else if s.paidMonth == 0 {
				s.paidMonth = month
			}
		}
		plan.Schedule = append(plan.Schedule, snapshot)

		if allClosed {
			plan.Months = month
			plan.PayoffDate = monthDate(opts.StartDate, month)
			break
		}
	}

	for _, s := range states {
		plan.Debts = append(plan.Debts, DebtResult{
			ID:           s.debt.ID,
			Name:         s.debt.Name,
			PayoffMonth:  s.paidMonth,
			PayoffDate:   monthDate(opts.StartDate, s.paidMonth),
			InterestPaid: s.interestPaid,
			TotalPaid:    s.totalPaid,
		})
		plan.TotalInterest = plan.TotalInterest.Add(s.interestPaid)
		plan.TotalPaid = plan.TotalPaid.Add(s.totalPaid)
	}

	baseline, err := MinimumOnly(debts)
	if err != nil {
		plan.BaselineError = err.Error()
	} else {
		plan.Baseline = baseline
		plan.InterestSaved = baseline.TotalInterest.Sub(plan.TotalInterest)
		plan.MonthsSaved = baseline.Months - plan.Months
	}
	return plan, nil
}

// MinimumOnly pays each debt with its own minimum payment and nothing else.
// Freed payments are not rolled over.
func MinimumOnly(debts []models.DebtAccount) (*Baseline, error) {
	states := newStates(debts)
	if len(states) == 0 {
		return nil, ErrNoDebts
	}
	for _, s := range states {
		interest := finance.RoundCents(s.balance.Mul(s.monthlyRate))
		if s.debt.MinimumPayment.LessThanOrEqual(interest) {
			return nil, fmt.Errorf("%w: minimum payment on %q", ErrNegativeAmortization, s.debt.Name)
		}
	}

	out := &Baseline{TotalInterest: decimal.Zero, TotalPaid: decimal.Zero}
	for month := 1; month <= MaxMonths; month++ {
		allClosed := true
		for _, s := range states {
			if !s.open() {
				continue
			}
			s.accrue()
			s.pay(s.debt.MinimumPayment)
			if s.open() {
				allClosed = false
			}
		}
		if allClosed {
			out.Months = month
			for _, s := range states {
				out.TotalInterest = out.TotalInterest.Add(s.interestPaid)
				out.TotalPaid = out.TotalPaid.Add(s.totalPaid)
			}
			return out, nil
		}
	}
	return nil, ErrHorizonExceeded
}

// Comparison holds one plan per built-in strategy.
type Comparison struct {
	Plans map[Strategy]*Plan `json:"plans"`
	// Best has the lowest total interest; ties go to fewer months, then to
	// the earlier entry in Strategies.
	Best Strategy `json:"best"`
}

func Compare(debts []models.DebtAccount, extra decimal.Decimal, start time.Time) (*Comparison, error) {
	cmp := &Comparison{Plans: make(map[Strategy]*Plan, len(Strategies))}
	var best *Plan
	for _, strategy := range Strategies {
		plan, err := Simulate(debts, Options{Strategy: strategy, ExtraPayment: extra, StartDate: start})
		if err != nil {
			return nil, fmt.Errorf("simulating %s: %w", strategy, err)
		}
		cmp.Plans[strategy] = plan
		if best == nil ||
			plan.TotalInterest.LessThan(best.TotalInterest) ||
			(plan.TotalInterest.Equal(best.TotalInterest) && plan.Months < best.Months) {
			best = plan
		}
	}
	cmp.Best = best.Strategy
	return cmp, nil
}

func monthDate(start time.Time, month int) time.Time {
	if start.IsZero() || month == 0 {
		return time.Time{}
	}
	return start.AddDate(0, month, 0)
}
