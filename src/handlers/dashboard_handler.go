package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	appdb "fintrack-server/src/db"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/finance"
	"fintrack-server/src/models"
)

func loadNetWorth(ctx context.Context, pool *pgxpool.Pool, userID int64) (NetWorthSummary, []models.Investment, []models.DebtAccount, error) {
	accounts, err := db.GetAccounts(ctx, pool, userID)
	if err != nil {
		return NetWorthSummary{}, nil, nil, err
	}
	investments, err := db.GetInvestmentsForUser(ctx, pool, userID)
	if err != nil {
		return NetWorthSummary{}, nil, nil, err
	}
	debts, err := db.GetDebtsForUser(ctx, pool, userID)
	if err != nil {
		return NetWorthSummary{}, nil, nil, err
	}
	return BuildNetWorth(accounts, investments, debts), investments, debts, nil
}

func GetNetWorth(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		cacheKey := appdb.Key(appdb.NetWorthCache, userID)
		if cached, found := cache.Get(cacheKey); found {
			writeJSON(w, http.StatusOK, cached)
			return
		}

		summary, _, _, err := loadNetWorth(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to compute net worth for user %d: %v", userID, err)
			http.Error(w, "failed to compute net worth", http.StatusInternalServerError)
			return
		}
		cache.Set(appdb.NetWorthCache, userID, cacheKey, summary)
		writeJSON(w, http.StatusOK, summary)
	}
}

// GetDashboard aggregates net worth, debt-to-income against the
// ?monthly_income= query value, investment performance and goal progress.
func GetDashboard(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		incomeStr := r.URL.Query().Get("monthly_income")
		income := 0.0
		if incomeStr != "" {
			var err error
			if income, err = strconv.ParseFloat(incomeStr, 64); err != nil || math.IsNaN(income) || math.IsInf(income, 0) {
				http.Error(w, "invalid monthly_income", http.StatusBadRequest)
				return
			}
		}

		cacheKey := appdb.Key(appdb.DashboardCache, userID, strconv.FormatFloat(income, 'f', 2, 64))
		if cached, found := cache.Get(cacheKey); found {
			writeJSON(w, http.StatusOK, cached)
			return
		}

		netWorth, investments, debts, err := loadNetWorth(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load dashboard balances for user %d: %v", userID, err)
			http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
			return
		}
		goals, err := db.GetGoalsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load goals for dashboard, user %d: %v", userID, err)
			http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
			return
		}

		dash, err := BuildDashboard(netWorth, investments, debts, goals, income, time.Now())
		if err != nil {
			log.Printf("ERROR: Failed to build dashboard for user %d: %v", userID, err)
			writeError(w, err, "failed to load dashboard")
			return
		}
		cache.Set(appdb.DashboardCache, userID, cacheKey, dash)
		writeJSON(w, http.StatusOK, dash)
	}
}

func BuildDashboard(netWorth NetWorthSummary, investments []models.Investment, debts []models.DebtAccount, goals []models.Goal, monthlyIncome float64, now time.Time) (*Dashboard, error) {
	inv, err := BuildInvestmentSummary(investments)
	if err != nil {
		return nil, err
	}

	minimumDue := decimal.Zero
	payments := make([]float64, 0, len(debts))
	for _, d := range debts {
		if !d.CurrentBalance.IsPositive() {
			continue
		}
		minimumDue = minimumDue.Add(d.MinimumPayment)
		payments = append(payments, d.MinimumPayment.InexactFloat64())
	}

	dash := &Dashboard{
		NetWorth:      netWorth,
		DebtToIncome:  finance.DebtToIncomeRatio(payments, monthlyIncome),
		MinimumDue:    minimumDue,
		Investments:   inv,
		Goals:         make([]GoalStatus, 0, len(goals)),
		MonthlyIncome: monthlyIncome,
	}
	progress := make([]float64, 0, len(goals))
	for _, g := range goals {
		days := int(math.Ceil(g.TargetDate.Sub(now).Hours() / 24))
		if days < 0 {
			days = 0
		}
		dash.Goals = append(dash.Goals, GoalStatus{ID: g.ID, Title: g.Title, Progress: g.Progress(), DaysToGoal: days})
		progress = append(progress, g.Progress())
	}
	dash.AverageGoal = finance.Average(progress)
	return dash, nil
}
