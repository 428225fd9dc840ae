package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	appdb "fintrack-server/src/db"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/models"
	fintrackplaid "fintrack-server/src/plaid"
	"fintrack-server/src/util"
)

func CreateLinkToken(plaidClient *plaid.APIClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		linkToken, err := fintrackplaid.CreateLinkToken(r.Context(), plaidClient, userID)
		if err != nil {
			log.Printf("ERROR: Plaid link token creation failed for user %d: %v", userID, err)
			http.Error(w, "failed to create link token", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"link_token": linkToken})
	}
}

// ExchangePublicToken stores the linked item and pulls its accounts once so
// balances show up before the first sync.
func ExchangePublicToken(plaidClient *plaid.APIClient, pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		var req struct {
			PublicToken string `json:"public_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
			log.Printf("ERROR: Failed to decode exchange public token request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		linked, err := fintrackplaid.ExchangePublicToken(r.Context(), plaidClient, req.PublicToken)
		if err != nil {
			log.Printf("ERROR: Plaid public token exchange failed for user %d: %v", userID, err)
			http.Error(w, "failed to exchange public token", http.StatusBadGateway)
			return
		}

		item, err := db.SavePlaidItem(r.Context(), pool, userID, linked.ItemID, linked.AccessToken, linked.InstitutionID, linked.InstitutionName)
		if err != nil {
			log.Printf("ERROR: Failed to save plaid item for user %d: %v", userID, err)
			http.Error(w, "failed to save plaid item", http.StatusInternalServerError)
			return
		}

		accounts, err := fintrackplaid.GetAccounts(r.Context(), plaidClient, item.AccessToken)
		if err != nil {
			log.Printf("ERROR: Failed to fetch accounts for user %d, item %s: %v", userID, item.ItemID, err)
		} else if err := db.SaveAccounts(r.Context(), pool, item.ID, accounts); err != nil {
			log.Printf("ERROR: Failed to save accounts for user %d, item %s: %v", userID, item.ItemID, err)
		}
		cache.InvalidateUser(userID)

		log.Printf("INFO: Linked plaid item %s for user %d", item.ItemID, userID)
		writeJSON(w, http.StatusCreated, item)
	}
}

func GetPlaidItems(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		items, err := db.GetPlaidItems(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get plaid items for user %d: %v", userID, err)
			http.Error(w, "failed to retrieve plaid items", http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []models.PlaidItem{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func GetAccounts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		accounts, err := db.GetAccounts(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get accounts for user %d: %v", userID, err)
			http.Error(w, "failed to retrieve accounts", http.StatusInternalServerError)
			return
		}
		if accounts == nil {
			accounts = []models.Account{}
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

// SyncItem refreshes balances and applies every transaction update since the
// item's stored cursor.
func SyncItem(plaidClient *plaid.APIClient, pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		itemID := chi.URLParam(r, "item_id")

		item, err := db.GetPlaidItem(r.Context(), pool, userID, itemID)
		if err != nil {
			log.Printf("ERROR: Failed to get plaid item %s for user %d: %v", itemID, userID, err)
			writeError(w, err, "failed to get plaid item")
			return
		}

		summary, err := syncPlaidItem(r.Context(), plaidClient, pool, cache, item)
		if err != nil {
			log.Printf("ERROR: Failed to sync item %s for user %d: %v", itemID, userID, err)
			writeSyncError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// PlaidWebhook receives Plaid's signed webhook calls. A transactions
// SYNC_UPDATES_AVAILABLE runs the same sync as SyncItem for the named item;
// every other webhook is acknowledged and logged.
func PlaidWebhook(keys util.KeySource, plaidClient *plaid.APIClient, pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		token := r.Header.Get(util.WebhookVerificationHeader)
		if err := util.VerifyWebhook(r.Context(), keys, body, token, time.Now()); err != nil {
			log.Printf("ERROR: Rejected plaid webhook from %s: %v", r.RemoteAddr, err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var payload struct {
			WebhookType string `json:"webhook_type"`
			WebhookCode string `json:"webhook_code"`
			ItemID      string `json:"item_id"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Printf("ERROR: Failed to decode plaid webhook body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if payload.WebhookType != "TRANSACTIONS" || payload.WebhookCode != "SYNC_UPDATES_AVAILABLE" {
			log.Printf("INFO: Ignoring plaid webhook %s/%s for item %s", payload.WebhookType, payload.WebhookCode, payload.ItemID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}

		item, err := db.GetPlaidItemByItemID(r.Context(), pool, payload.ItemID)
		if errors.Is(err, db.ErrNotFound) {
			// Plaid keeps retrying non-2xx responses; an unlinked item never resolves.
			log.Printf("INFO: Plaid webhook for unknown item %s", payload.ItemID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "unknown item"})
			return
		}
		if err != nil {
			log.Printf("ERROR: Failed to get plaid item %s for webhook: %v", payload.ItemID, err)
			http.Error(w, "failed to get plaid item", http.StatusInternalServerError)
			return
		}

		summary, err := syncPlaidItem(r.Context(), plaidClient, pool, cache, item)
		if err != nil {
			log.Printf("ERROR: Webhook sync of item %s for user %d failed: %v", item.ItemID, item.UserID, err)
			writeSyncError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

const maxWebhookBody = 1 << 20

type syncSummary struct {
	Accounts int `json:"accounts"`
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// syncError is the client-facing outcome of the sync step that failed.
type syncError struct {
	status int
	msg    string
	err    error
}

func (e *syncError) Error() string { return fmt.Sprintf("%s: %v", e.msg, e.err) }
func (e *syncError) Unwrap() error { return e.err }

func writeSyncError(w http.ResponseWriter, err error) {
	var se *syncError
	if errors.As(err, &se) {
		http.Error(w, se.msg, se.status)
		return
	}
	http.Error(w, "failed to sync item", http.StatusInternalServerError)
}

// syncPlaidItem refreshes the item's accounts, applies transaction updates
// since its stored cursor and advances the cursor.
func syncPlaidItem(ctx context.Context, plaidClient *plaid.APIClient, pool *pgxpool.Pool, cache *appdb.Cache, item *models.PlaidItem) (*syncSummary, error) {
	accounts, err := fintrackplaid.GetAccounts(ctx, plaidClient, item.AccessToken)
	if err != nil {
		return nil, &syncError{http.StatusBadGateway, "failed to fetch accounts", err}
	}
	if err := db.SaveAccounts(ctx, pool, item.ID, accounts); err != nil {
		return nil, &syncError{http.StatusInternalServerError, "failed to save accounts", err}
	}

	cursor, err := db.GetSyncCursor(ctx, pool, item.ID)
	if err != nil {
		return nil, &syncError{http.StatusInternalServerError, "failed to retrieve sync cursor", err}
	}

	result, err := fintrackplaid.SyncTransactions(ctx, plaidClient, item.AccessToken, cursor)
	if err != nil {
		return nil, &syncError{http.StatusBadGateway, "failed to sync transactions", err}
	}

	if err := db.ApplyTransactionSync(ctx, pool, item.UserID, result.Added, result.Modified, result.Removed); err != nil {
		return nil, &syncError{http.StatusInternalServerError, "failed to save transactions", err}
	}
	if err := db.UpdateSyncCursor(ctx, pool, item.ID, result.NextCursor); err != nil {
		return nil, &syncError{http.StatusInternalServerError, "failed to update sync cursor", err}
	}
	cache.InvalidateUser(item.UserID)

	log.Printf("INFO: Synced item %s for user %d: %d added, %d modified, %d removed",
		item.ItemID, item.UserID, len(result.Added), len(result.Modified), len(result.Removed))
	return &syncSummary{
		Accounts: len(accounts),
		Added:    len(result.Added),
		Modified: len(result.Modified),
		Removed:  len(result.Removed),
	}, nil
}
