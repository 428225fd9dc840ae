package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack-server/src/budgeting"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/models"
	"fintrack-server/src/util"
)

type budgetRequest struct {
	Month       string                  `json:"month"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
	Categories  []models.BudgetCategory `json:"categories"`
}

// withSpending loads the month's transactions and derives spent amounts.
func withSpending(ctx context.Context, pool *pgxpool.Pool, b *models.Budget) error {
	from, to, err := budgeting.MonthRange(b.Month)
	if err != nil {
		return err
	}
	txns, err := db.GetTransactions(ctx, pool, b.UserID, from, to)
	if err != nil {
		return err
	}
	return budgeting.ApplySpending(b, txns)
}

func CreateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req budgetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create budget request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		budget := &models.Budget{
			UserID:      userID,
			Month:       req.Month,
			TotalAmount: req.TotalAmount,
			Categories:  req.Categories,
		}
		if err := budgeting.Validate(*budget); err != nil {
			writeError(w, err, "invalid budget")
			return
		}

		created, err := db.CreateBudget(r.Context(), pool, budget)
		if err != nil {
			log.Printf("ERROR: Failed to create budget for user %d, month %s: %v", userID, req.Month, err)
			writeError(w, err, "failed to create budget")
			return
		}
		if err := withSpending(r.Context(), pool, created); err != nil {
			log.Printf("ERROR: Failed to derive spending for user %d, month %s: %v", userID, created.Month, err)
		}
		log.Printf("INFO: Created budget id %d for user %d, month %s", created.ID, userID, created.Month)
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetAllBudgetsForUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		budgets, err := db.GetAllBudgetsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get budgets for user %d: %v", userID, err)
			http.Error(w, "failed to get budgets", http.StatusInternalServerError)
			return
		}
		if budgets == nil {
			budgets = []models.Budget{}
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func GetBudgetByMonth(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		month := chi.URLParam(r, "month")
		if !util.ValidateMonth(month) {
			http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
		budget, err := db.GetBudgetByMonth(r.Context(), pool, userID, month)
		if err != nil {
			log.Printf("ERROR: Budget for month %s not found for user %d: %v", month, userID, err)
			writeError(w, err, "failed to get budget")
			return
		}
		if err := withSpending(r.Context(), pool, budget); err != nil {
			log.Printf("ERROR: Failed to derive spending for user %d, month %s: %v", userID, month, err)
			http.Error(w, "failed to get budget", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"budget":      budget,
			"over_budget": budgeting.OverBudget(*budget),
		})
	}
}

func UpdateBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		month := chi.URLParam(r, "month")
		if !util.ValidateMonth(month) {
			http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
		var req budgetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode update budget request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		budget := &models.Budget{
			UserID:      userID,
			Month:       month,
			TotalAmount: req.TotalAmount,
			Categories:  req.Categories,
		}
		if err := budgeting.Validate(*budget); err != nil {
			writeError(w, err, "invalid budget")
			return
		}

		updated, err := db.UpdateBudget(r.Context(), pool, budget)
		if err != nil {
			log.Printf("ERROR: Failed to update budget for user %d, month %s: %v", userID, month, err)
			writeError(w, err, "failed to update budget")
			return
		}
		if err := withSpending(r.Context(), pool, updated); err != nil {
			log.Printf("ERROR: Failed to derive spending for user %d, month %s: %v", userID, month, err)
		}
		log.Printf("INFO: Updated budget id %d for user %d", updated.ID, userID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteBudget(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		month := chi.URLParam(r, "month")
		if !util.ValidateMonth(month) {
			http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
			return
		}
		if err := db.DeleteBudget(r.Context(), pool, userID, month); err != nil {
			log.Printf("ERROR: Failed to delete budget for user %d, month %s: %v", userID, month, err)
			writeError(w, err, "failed to delete budget")
			return
		}
		log.Printf("INFO: Deleted budget for user %d, month %s", userID, month)
		writeJSON(w, http.StatusOK, map[string]string{"message": "budget deleted"})
	}
}
