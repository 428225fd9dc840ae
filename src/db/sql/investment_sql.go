package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack-server/src/models"
)

const investmentColumns = `id, user_id, name, asset_type, current_value, purchase_value, created_at, updated_at`

func scanInvestment(row interface{ Scan(...any) error }) (*models.Investment, error) {
	var i models.Investment
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.AssetType, &i.CurrentValue, &i.PurchaseValue, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &i, nil
}

func CreateInvestment(ctx context.Context, pool *pgxpool.Pool, i *models.Investment) (*models.Investment, error) {
	query := `
		INSERT INTO investments (user_id, name, asset_type, current_value, purchase_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + investmentColumns
	return scanInvestment(pool.QueryRow(ctx, query, i.UserID, i.Name, i.AssetType, i.CurrentValue, i.PurchaseValue))
}

func GetInvestmentsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE user_id = $1 ORDER BY id`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var investments []models.Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, *i)
	}
	return investments, rows.Err()
}

func UpdateInvestment(ctx context.Context, pool *pgxpool.Pool, i *models.Investment) (*models.Investment, error) {
	query := `
		UPDATE investments
		SET name = $1, asset_type = $2, current_value = $3, purchase_value = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING ` + investmentColumns
	return scanInvestment(pool.QueryRow(ctx, query, i.Name, i.AssetType, i.CurrentValue, i.PurchaseValue, i.ID, i.UserID))
}

func DeleteInvestment(ctx context.Context, pool *pgxpool.Pool, userID, id int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM investments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
