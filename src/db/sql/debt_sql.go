package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack-server/src/models"
)

const debtColumns = `id, user_id, name, type, current_balance, original_balance, interest_rate, minimum_payment, created_at, updated_at`

func scanDebt(row interface{ Scan(...any) error }) (*models.DebtAccount, error) {
	var d models.DebtAccount
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.CurrentBalance, &d.OriginalBalance, &d.InterestRate, &d.MinimumPayment, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func CreateDebt(ctx context.Context, pool *pgxpool.Pool, d *models.DebtAccount) (*models.DebtAccount, error) {
	query := `
		INSERT INTO debts (user_id, name, type, current_balance, original_balance, interest_rate, minimum_payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + debtColumns
	return scanDebt(pool.QueryRow(ctx, query, d.UserID, d.Name, d.Type, d.CurrentBalance, d.OriginalBalance, d.InterestRate, d.MinimumPayment))
}

func GetDebtByID(ctx context.Context, pool *pgxpool.Pool, userID, id int64) (*models.DebtAccount, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE id = $1 AND user_id = $2`
	return scanDebt(pool.QueryRow(ctx, query, id, userID))
}

func GetDebtsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.DebtAccount, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE user_id = $1 ORDER BY id`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []models.DebtAccount
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, *d)
	}
	return debts, rows.Err()
}

// UpdateDebt rewrites the editable fields, which covers refinancing a rate or
// minimum payment.
func UpdateDebt(ctx context.Context, pool *pgxpool.Pool, d *models.DebtAccount) (*models.DebtAccount, error) {
	query := `
		UPDATE debts
		SET name = $1, type = $2, current_balance = $3, original_balance = $4,
			interest_rate = $5, minimum_payment = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING ` + debtColumns
	return scanDebt(pool.QueryRow(ctx, query, d.Name, d.Type, d.CurrentBalance, d.OriginalBalance, d.InterestRate, d.MinimumPayment, d.ID, d.UserID))
}

// RecordDebtPayment lowers the balance by amount, never below zero.
func RecordDebtPayment(ctx context.Context, pool *pgxpool.Pool, userID, id int64, amount decimal.Decimal) (*models.DebtAccount, error) {
	query := `
		UPDATE debts
		SET current_balance = GREATEST(current_balance - $1, 0), updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING ` + debtColumns
	return scanDebt(pool.QueryRow(ctx, query, amount, id, userID))
}

func DeleteDebt(ctx context.Context, pool *pgxpool.Pool, userID, id int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM debts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
