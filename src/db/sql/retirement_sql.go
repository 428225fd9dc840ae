package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack-server/src/models"
)

const retirementColumns = `id, user_id, current_age, retirement_age, life_expectancy, current_savings,
	annual_contribution, contribution_growth_rate, expected_return, post_retirement_return,
	inflation_rate, adjust_for_inflation, desired_retirement_income, social_security_income,
	additional_income, life_events, created_at, updated_at`

func GetRetirementPlan(ctx context.Context, pool *pgxpool.Pool, userID int64) (*models.RetirementPlan, error) {
	query := `SELECT ` + retirementColumns + ` FROM retirement_plans WHERE user_id = $1`
	var p models.RetirementPlan
	err := pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.CurrentAge, &p.RetirementAge, &p.LifeExpectancy, &p.CurrentSavings,
		&p.AnnualContribution, &p.ContributionGrowthRate, &p.ExpectedReturn, &p.PostRetirementReturn,
		&p.InflationRate, &p.AdjustForInflation, &p.DesiredRetirementIncome, &p.SocialSecurityIncome,
		&p.AdditionalIncome, &p.LifeEvents, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// SaveRetirementPlan creates or replaces the user's single plan.
func SaveRetirementPlan(ctx context.Context, pool *pgxpool.Pool, p *models.RetirementPlan) (*models.RetirementPlan, error) {
	events := p.LifeEvents
	if events == nil {
		events = []models.LifeEvent{}
	}
	query := `
		INSERT INTO retirement_plans (user_id, current_age, retirement_age, life_expectancy, current_savings,
			annual_contribution, contribution_growth_rate, expected_return, post_retirement_return,
			inflation_rate, adjust_for_inflation, desired_retirement_income, social_security_income,
			additional_income, life_events)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			current_age = EXCLUDED.current_age,
			retirement_age = EXCLUDED.retirement_age,
			life_expectancy = EXCLUDED.life_expectancy,
			current_savings = EXCLUDED.current_savings,
			annual_contribution = EXCLUDED.annual_contribution,
			contribution_growth_rate = EXCLUDED.contribution_growth_rate,
			expected_return = EXCLUDED.expected_return,
			post_retirement_return = EXCLUDED.post_retirement_return,
			inflation_rate = EXCLUDED.inflation_rate,
			adjust_for_inflation = EXCLUDED.adjust_for_inflation,
			desired_retirement_income = EXCLUDED.desired_retirement_income,
			social_security_income = EXCLUDED.social_security_income,
			additional_income = EXCLUDED.additional_income,
			life_events = EXCLUDED.life_events,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	saved := *p
	saved.LifeEvents = events
	err := pool.QueryRow(ctx, query,
		p.UserID, p.CurrentAge, p.RetirementAge, p.LifeExpectancy, p.CurrentSavings,
		p.AnnualContribution, p.ContributionGrowthRate, p.ExpectedReturn, p.PostRetirementReturn,
		p.InflationRate, p.AdjustForInflation, p.DesiredRetirementIncome, p.SocialSecurityIncome,
		p.AdditionalIncome, events,
	).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
