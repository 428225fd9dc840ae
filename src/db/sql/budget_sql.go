package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack-server/src/models"
)

// storedCategory is the JSONB shape of a budget category. Spent and
// Remaining are derived on read and never written.
type storedCategory struct {
	Name  string          `json:"name"`
	Limit decimal.Decimal `json:"limit"`
}

func toStored(categories []models.BudgetCategory) []storedCategory {
	out := make([]storedCategory, len(categories))
	for i, c := range categories {
		out[i] = storedCategory{Name: c.Name, Limit: c.Limit}
	}
	return out
}

func scanBudget(row interface{ Scan(...any) error }) (*models.Budget, error) {
	var b models.Budget
	var stored []storedCategory
	err := row.Scan(&b.ID, &b.UserID, &b.Month, &b.TotalAmount, &stored, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	b.Categories = make([]models.BudgetCategory, len(stored))
	for i, c := range stored {
		b.Categories[i] = models.BudgetCategory{Name: c.Name, Limit: c.Limit, Spent: decimal.Zero, Remaining: c.Limit}
	}
	b.TotalSpent = decimal.Zero
	return &b, nil
}

const budgetColumns = `id, user_id, month, total_amount, categories, created_at, updated_at`

// CreateBudget fails with ErrConflict if the user already has a budget for
// the month.
func CreateBudget(ctx context.Context, pool *pgxpool.Pool, budget *models.Budget) (*models.Budget, error) {
	query := `
		INSERT INTO budgets (user_id, month, total_amount, categories)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + budgetColumns
	return scanBudget(pool.QueryRow(ctx, query, budget.UserID, budget.Month, budget.TotalAmount, toStored(budget.Categories)))
}

func GetBudgetByMonth(ctx context.Context, pool *pgxpool.Pool, userID int64, month string) (*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 AND month = $2`
	return scanBudget(pool.QueryRow(ctx, query, userID, month))
}

func GetAllBudgetsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 ORDER BY month DESC`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func UpdateBudget(ctx context.Context, pool *pgxpool.Pool, budget *models.Budget) (*models.Budget, error) {
	query := `
		UPDATE budgets
		SET total_amount = $1, categories = $2, updated_at = NOW()
		WHERE user_id = $3 AND month = $4
		RETURNING ` + budgetColumns
	return scanBudget(pool.QueryRow(ctx, query, budget.TotalAmount, toStored(budget.Categories), budget.UserID, budget.Month))
}

func DeleteBudget(ctx context.Context, pool *pgxpool.Pool, userID int64, month string) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND month = $2`, userID, month)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
