package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	appdb "fintrack-server/src/db"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/models"
)

type investmentRequest struct {
	Name          string          `json:"name"`
	AssetType     string          `json:"asset_type"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	PurchaseValue decimal.Decimal `json:"purchase_value"`
}

func (req investmentRequest) toModel(userID int64) (*models.Investment, string) {
	switch {
	case req.Name == "":
		return nil, "name is required"
	case req.CurrentValue.IsNegative() || req.PurchaseValue.IsNegative():
		return nil, "values must not be negative"
	}
	return &models.Investment{
		UserID:        userID,
		Name:          req.Name,
		AssetType:     req.AssetType,
		CurrentValue:  req.CurrentValue,
		PurchaseValue: req.PurchaseValue,
	}, ""
}

func CreateInvestment(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req investmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		inv, msg := req.toModel(userID)
		if inv == nil {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		created, err := db.CreateInvestment(r.Context(), pool, inv)
		if err != nil {
			log.Printf("ERROR: Failed to create investment for user %d: %v", userID, err)
			writeError(w, err, "failed to create investment")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Created investment id %d for user %d", created.ID, userID)
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetInvestments(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		investments, err := db.GetInvestmentsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get investments for user %d: %v", userID, err)
			http.Error(w, "failed to get investments", http.StatusInternalServerError)
			return
		}
		if investments == nil {
			investments = []models.Investment{}
		}
		writeJSON(w, http.StatusOK, investments)
	}
}

func UpdateInvestment(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid investment id", http.StatusBadRequest)
			return
		}
		var req investmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		inv, msg := req.toModel(userID)
		if inv == nil {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		inv.ID = id
		updated, err := db.UpdateInvestment(r.Context(), pool, inv)
		if err != nil {
			log.Printf("ERROR: Failed to update investment id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to update investment")
			return
		}
		cache.InvalidateUser(userID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteInvestment(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid investment id", http.StatusBadRequest)
			return
		}
		if err := db.DeleteInvestment(r.Context(), pool, userID, id); err != nil {
			log.Printf("ERROR: Failed to delete investment id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to delete investment")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Deleted investment id %d for user %d", id, userID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "investment deleted"})
	}
}

func GetInvestmentSummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		investments, err := db.GetInvestmentsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get investments for summary, user %d: %v", userID, err)
			http.Error(w, "failed to get investments", http.StatusInternalServerError)
			return
		}
		summary, err := BuildInvestmentSummary(investments)
		if err != nil {
			log.Printf("ERROR: Failed to summarize investments for user %d: %v", userID, err)
			writeError(w, err, "failed to summarize investments")
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}
