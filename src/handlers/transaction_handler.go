package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack-server/src/budgeting"
	appdb "fintrack-server/src/db"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/models"
	"fintrack-server/src/util"
)

type transactionRequest struct {
	AccountID   *int64          `json:"account_id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Merchant    string          `json:"merchant"`
	Pending     bool            `json:"pending"`
}

func (req transactionRequest) toModel(userID int64) (*models.Transaction, bool) {
	date, ok := util.ValidateDate(req.Date)
	if !ok {
		return nil, false
	}
	return &models.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		Date:        date,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Merchant:    req.Merchant,
		Pending:     req.Pending,
		Source:      models.SourceManual,
	}, true
}

// GetTransactions lists the caller's transactions, optionally limited to
// ?month=YYYY-MM.
func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		var from, to time.Time
		if month := r.URL.Query().Get("month"); month != "" {
			var err error
			if from, to, err = budgeting.MonthRange(month); err != nil {
				http.Error(w, "invalid month", http.StatusBadRequest)
				return
			}
		}

		txns, err := db.GetTransactions(r.Context(), pool, userID, from, to)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for user %d: %v", userID, err)
			http.Error(w, "failed to get transactions", http.StatusInternalServerError)
			return
		}
		if txns == nil {
			txns = []models.Transaction{}
		}
		writeJSON(w, http.StatusOK, txns)
	}
}

func CreateTransaction(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode create transaction request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		txn, ok := req.toModel(userID)
		if !ok {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		txn.ID = uuid.NewString()

		created, err := db.CreateTransaction(r.Context(), pool, txn)
		if err != nil {
			log.Printf("ERROR: Failed to create transaction for user %d: %v", userID, err)
			writeError(w, err, "failed to create transaction")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Created transaction %s for user %d", created.ID, userID)
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateTransaction(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id := chi.URLParam(r, "id")
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode update transaction request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		txn, ok := req.toModel(userID)
		if !ok {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		txn.ID = id

		updated, err := db.UpdateTransaction(r.Context(), pool, txn)
		if err != nil {
			log.Printf("ERROR: Failed to update transaction %s for user %d: %v", id, userID, err)
			writeError(w, err, "failed to update transaction")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Updated transaction %s for user %d", id, userID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteTransaction(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id := chi.URLParam(r, "id")
		if err := db.DeleteTransaction(r.Context(), pool, userID, id); err != nil {
			log.Printf("ERROR: Failed to delete transaction %s for user %d: %v", id, userID, err)
			writeError(w, err, "failed to delete transaction")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Deleted transaction %s for user %d", id, userID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
	}
}
