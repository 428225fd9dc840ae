package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack-server/src/models"
)

const transactionColumns = `id, user_id, account_id, date, amount, category, description, merchant, pending, source, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Date, &t.Amount, &t.Category, &t.Description, &t.Merchant, &t.Pending, &t.Source, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// GetTransactions lists the user's transactions dated in [from, to), newest
// first. Zero bounds are open.
func GetTransactions(ctx context.Context, pool *pgxpool.Pool, userID int64, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
			AND ($2::date IS NULL OR date >= $2)
			AND ($3::date IS NULL OR date < $3)
		ORDER BY date DESC, created_at DESC
	`
	rows, err := pool.Query(ctx, query, userID, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func CreateTransaction(ctx context.Context, pool *pgxpool.Pool, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (id, user_id, account_id, date, amount, category, description, merchant, pending, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transactionColumns
	return scanTransaction(pool.QueryRow(ctx, query,
		t.ID, t.UserID, t.AccountID, t.Date, t.Amount, t.Category, t.Description, t.Merchant, t.Pending, t.Source))
}

func UpdateTransaction(ctx context.Context, pool *pgxpool.Pool, t *models.Transaction) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET date = $1, amount = $2, category = $3, description = $4, merchant = $5, pending = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING ` + transactionColumns
	return scanTransaction(pool.QueryRow(ctx, query,
		t.Date, t.Amount, t.Category, t.Description, t.Merchant, t.Pending, t.ID, t.UserID))
}

func DeleteTransaction(ctx context.Context, pool *pgxpool.Pool, userID int64, id string) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
