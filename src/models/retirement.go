package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LifeEventType string

const (
	LifeEventIncome  LifeEventType = "income"
	LifeEventExpense LifeEventType = "expense"
)

// LifeEvent shifts the projection in year YearOffset (0 = current year) and,
// when Recurring, every RecurringPeriod years after that.
type LifeEvent struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	YearOffset      int             `json:"year_offset"`
	Type            LifeEventType   `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Recurring       bool            `json:"recurring"`
	RecurringAmount decimal.Decimal `json:"recurring_amount"`
	RecurringPeriod int             `json:"recurring_period"`
}

// RetirementPlan bundles the projection assumptions. Rates are fractions
// (0.07 means 7%); money is annual.
type RetirementPlan struct {
	ID                      int64           `json:"id"`
	UserID                  int64           `json:"user_id"`
	CurrentAge              int             `json:"current_age"`
	RetirementAge           int             `json:"retirement_age"`
	LifeExpectancy          int             `json:"life_expectancy"`
	CurrentSavings          decimal.Decimal `json:"current_savings"`
	AnnualContribution      decimal.Decimal `json:"annual_contribution"`
	ContributionGrowthRate  float64         `json:"contribution_growth_rate"`
	ExpectedReturn          float64         `json:"expected_return"`
	PostRetirementReturn    float64         `json:"post_retirement_return"`
	InflationRate           float64         `json:"inflation_rate"`
	AdjustForInflation      bool            `json:"adjust_for_inflation"`
	DesiredRetirementIncome decimal.Decimal `json:"desired_retirement_income"`
	SocialSecurityIncome    decimal.Decimal `json:"social_security_income"`
	AdditionalIncome        decimal.Decimal `json:"additional_income"`
	LifeEvents              []LifeEvent     `json:"life_events"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}
