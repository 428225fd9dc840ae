package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack-server/src/models"
)

const goalColumns = `id, user_id, title, target_amount, current_amount, target_date, category, priority, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (*models.Goal, error) {
	var g models.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.Category, &g.Priority, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &g, nil
}

func CreateGoal(ctx context.Context, pool *pgxpool.Pool, g *models.Goal) (*models.Goal, error) {
	query := `
		INSERT INTO goals (user_id, title, target_amount, current_amount, target_date, category, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + goalColumns
	return scanGoal(pool.QueryRow(ctx, query, g.UserID, g.Title, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.Category, g.Priority))
}

func GetGoalByID(ctx context.Context, pool *pgxpool.Pool, userID, id int64) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`
	return scanGoal(pool.QueryRow(ctx, query, id, userID))
}

// GetGoalsForUser orders by priority (1 is most important), then deadline.
func GetGoalsForUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY priority, target_date`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func UpdateGoal(ctx context.Context, pool *pgxpool.Pool, g *models.Goal) (*models.Goal, error) {
	query := `
		UPDATE goals
		SET title = $1, target_amount = $2, current_amount = $3, target_date = $4,
			category = $5, priority = $6, updated_at = NOW()
		WHERE id = $7 AND user_id = $8
		RETURNING ` + goalColumns
	return scanGoal(pool.QueryRow(ctx, query, g.Title, g.TargetAmount, g.CurrentAmount, g.TargetDate, g.Category, g.Priority, g.ID, g.UserID))
}

func DeleteGoal(ctx context.Context, pool *pgxpool.Pool, userID, id int64) error {
	cmd, err := pool.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
