package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	appdb "fintrack-server/src/db"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/models"
	"fintrack-server/src/payoff"
)

type debtRequest struct {
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	CurrentBalance  decimal.Decimal  `json:"current_balance"`
	OriginalBalance *decimal.Decimal `json:"original_balance"`
	InterestRate    float64          `json:"interest_rate"`
	MinimumPayment  decimal.Decimal  `json:"minimum_payment"`
}

var errInvalidDebt = errors.New("invalid debt")

// debtProblem reports the first field that makes a debt unusable, or "".
func debtProblem(name string, balance decimal.Decimal, rate float64, minimum decimal.Decimal) string {
	switch {
	case name == "":
		return "name is required"
	case balance.IsNegative():
		return "current_balance must not be negative"
	case rate < 0:
		return "interest_rate must not be negative"
	case minimum.IsNegative():
		return "minimum_payment must not be negative"
	}
	return ""
}

func (req debtRequest) toModel(userID int64) (*models.DebtAccount, string) {
	if msg := debtProblem(req.Name, req.CurrentBalance, req.InterestRate, req.MinimumPayment); msg != "" {
		return nil, msg
	}
	original := req.CurrentBalance
	if req.OriginalBalance != nil {
		original = *req.OriginalBalance
	}
	return &models.DebtAccount{
		UserID:          userID,
		Name:            req.Name,
		Type:            req.Type,
		CurrentBalance:  req.CurrentBalance,
		OriginalBalance: original,
		InterestRate:    req.InterestRate,
		MinimumPayment:  req.MinimumPayment,
	}, ""
}

func CreateDebt(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req debtRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create debt request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		debt, msg := req.toModel(userID)
		if debt == nil {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		created, err := db.CreateDebt(r.Context(), pool, debt)
		if err != nil {
			log.Printf("ERROR: Failed to create debt for user %d: %v", userID, err)
			writeError(w, err, "failed to create debt")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Created debt id %d for user %d", created.ID, userID)
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetDebts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		debts, err := db.GetDebtsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get debts for user %d: %v", userID, err)
			http.Error(w, "failed to get debts", http.StatusInternalServerError)
			return
		}
		if debts == nil {
			debts = []models.DebtAccount{}
		}
		writeJSON(w, http.StatusOK, debts)
	}
}

func GetDebt(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid debt id", http.StatusBadRequest)
			return
		}
		debt, err := db.GetDebtByID(r.Context(), pool, userID, id)
		if err != nil {
			log.Printf("ERROR: Debt id %d not found for user %d: %v", id, userID, err)
			writeError(w, err, "failed to get debt")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"debt":             debt,
			"paid_off_percent": debt.PaidOffPercent(),
		})
	}
}

// UpdateDebt replaces a debt's fields; a refinance is an update with a new
// rate or minimum payment.
func UpdateDebt(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid debt id", http.StatusBadRequest)
			return
		}
		var req debtRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode update debt request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		debt, msg := req.toModel(userID)
		if debt == nil {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		debt.ID = id
		updated, err := db.UpdateDebt(r.Context(), pool, debt)
		if err != nil {
			log.Printf("ERROR: Failed to update debt id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to update debt")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Updated debt id %d for user %d", id, userID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteDebt(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid debt id", http.StatusBadRequest)
			return
		}
		if err := db.DeleteDebt(r.Context(), pool, userID, id); err != nil {
			log.Printf("ERROR: Failed to delete debt id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to delete debt")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Deleted debt id %d for user %d", id, userID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "debt deleted"})
	}
}

func RecordDebtPayment(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid debt id", http.StatusBadRequest)
			return
		}
		var req struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if !req.Amount.IsPositive() {
			http.Error(w, "amount must be positive", http.StatusBadRequest)
			return
		}
		updated, err := db.RecordDebtPayment(r.Context(), pool, userID, id, req.Amount)
		if err != nil {
			log.Printf("ERROR: Failed to record payment on debt id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to record payment")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Recorded payment of %s on debt id %d for user %d", req.Amount, id, userID)
		writeJSON(w, http.StatusOK, updated)
	}
}

type payoffRequest struct {
	Strategy     string               `json:"strategy"`
	ExtraPayment decimal.Decimal      `json:"extra_payment"`
	CustomOrder  []int64              `json:"custom_order"`
	Debts        []models.DebtAccount `json:"debts"`
	StartDate    string               `json:"start_date"`
}

func (req payoffRequest) startDate(now time.Time) (time.Time, bool) {
	if req.StartDate == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	t, err := time.Parse("2006-01-02", req.StartDate)
	return t, err == nil
}

// payoffDebts returns the debts supplied in the body, or the stored ones when
// the body has none. Body debts pass the same checks as created debts.
func payoffDebts(r *http.Request, pool *pgxpool.Pool, req payoffRequest) ([]models.DebtAccount, error) {
	if len(req.Debts) > 0 {
		for i, d := range req.Debts {
			if msg := debtProblem(d.Name, d.CurrentBalance, d.InterestRate, d.MinimumPayment); msg != "" {
				return nil, fmt.Errorf("%w: debts[%d]: %s", errInvalidDebt, i, msg)
			}
		}
		return req.Debts, nil
	}
	return db.GetDebtsForUser(r.Context(), pool, currentUserID(r))
}

func PayoffPlan(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req payoffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		strategy, err := payoff.ParseStrategy(req.Strategy)
		if err != nil {
			writeError(w, err, "invalid strategy")
			return
		}
		start, ok := req.startDate(time.Now())
		if !ok {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		debts, err := payoffDebts(r, pool, req)
		if err != nil {
			log.Printf("ERROR: Failed to load debts for payoff plan, user %d: %v", userID, err)
			writeError(w, err, "failed to load debts")
			return
		}

		plan, err := payoff.Simulate(debts, payoff.Options{
			Strategy:     strategy,
			ExtraPayment: req.ExtraPayment,
			CustomOrder:  req.CustomOrder,
			StartDate:    start,
		})
		if err != nil {
			log.Printf("ERROR: Payoff simulation failed for user %d (%s): %v", userID, strategy, err)
			writeError(w, err, "failed to build payoff plan")
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

func ComparePayoff(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req payoffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		start, ok := req.startDate(time.Now())
		if !ok {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		debts, err := payoffDebts(r, pool, req)
		if err != nil {
			log.Printf("ERROR: Failed to load debts for payoff comparison, user %d: %v", userID, err)
			writeError(w, err, "failed to load debts")
			return
		}

		cmp, err := payoff.Compare(debts, req.ExtraPayment, start)
		if err != nil {
			log.Printf("ERROR: Payoff comparison failed for user %d: %v", userID, err)
			writeError(w, err, "failed to compare strategies")
			return
		}
		writeJSON(w, http.StatusOK, cmp)
	}
}
