package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/shopspring/decimal"

	"fintrack-server/src/models"
)

func GetPlaidItems(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.PlaidItem, error) {
	query := `
		SELECT id, user_id, access_token, item_id, institution_id, institution_name, created_at
		FROM plaid_items WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.PlaidItem
	for rows.Next() {
		var item models.PlaidItem
		err := rows.Scan(&item.ID, &item.UserID, &item.AccessToken, &item.ItemID, &item.InstitutionID, &item.InstitutionName, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetPlaidItem looks up an item by its aggregator id, scoped to the user.
func GetPlaidItem(ctx context.Context, pool *pgxpool.Pool, userID int64, itemID string) (*models.PlaidItem, error) {
	query := `
		SELECT id, user_id, access_token, item_id, institution_id, institution_name, created_at
		FROM plaid_items WHERE user_id = $1 AND item_id = $2
	`
	var item models.PlaidItem
	err := pool.QueryRow(ctx, query, userID, itemID).
		Scan(&item.ID, &item.UserID, &item.AccessToken, &item.ItemID, &item.InstitutionID, &item.InstitutionName, &item.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

// GetPlaidItemByItemID looks an item up by Plaid's id alone, for callers such
// as webhooks that carry no user.
func GetPlaidItemByItemID(ctx context.Context, pool *pgxpool.Pool, itemID string) (*models.PlaidItem, error) {
	query := `
		SELECT id, user_id, access_token, item_id, institution_id, institution_name, created_at
		FROM plaid_items WHERE item_id = $1
	`
	var item models.PlaidItem
	err := pool.QueryRow(ctx, query, itemID).
		Scan(&item.ID, &item.UserID, &item.AccessToken, &item.ItemID, &item.InstitutionID, &item.InstitutionName, &item.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

func SavePlaidItem(ctx context.Context, pool *pgxpool.Pool, userID int64, itemID, accessToken, institutionID, institutionName string) (*models.PlaidItem, error) {
	query := `
		INSERT INTO plaid_items (user_id, item_id, access_token, institution_id, institution_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO UPDATE SET access_token = EXCLUDED.access_token
		RETURNING id, user_id, access_token, item_id, institution_id, institution_name, created_at
	`
	var item models.PlaidItem
	err := pool.QueryRow(ctx, query, userID, itemID, accessToken, institutionID, institutionName).
		Scan(&item.ID, &item.UserID, &item.AccessToken, &item.ItemID, &item.InstitutionID, &item.InstitutionName, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func GetSyncCursor(ctx context.Context, pool *pgxpool.Pool, itemID int64) (string, error) {
	var cursor string
	err := pool.QueryRow(ctx, `SELECT cursor FROM plaid_items WHERE id = $1`, itemID).Scan(&cursor)
	if err != nil {
		return "", mapErr(err)
	}
	return cursor, nil
}

func UpdateSyncCursor(ctx context.Context, pool *pgxpool.Pool, itemID int64, cursor string) error {
	_, err := pool.Exec(ctx, `UPDATE plaid_items SET cursor = $1 WHERE id = $2`, cursor, itemID)
	return err
}

func scanAccounts(rows pgx.Rows) ([]models.Account, error) {
	defer rows.Close()
	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		var available decimal.NullDecimal
		err := rows.Scan(&a.ID, &a.ItemID, &a.AccountID, &a.Name, &a.OfficialName, &a.Mask, &a.Type, &a.Subtype, &a.CurrentBalance, &available, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		if available.Valid {
			a.AvailableBalance = &available.Decimal
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccounts returns every account across all of the user's items.
func GetAccounts(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Account, error) {
	query := `
		SELECT a.id, a.item_id, a.account_id, a.name, a.official_name, a.mask, a.type, a.subtype,
			a.current_balance, a.available_balance, a.created_at
		FROM accounts a
		JOIN plaid_items p ON a.item_id = p.id
		WHERE p.user_id = $1
		ORDER BY a.id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanAccounts(rows)
}

// SaveAccounts upserts the aggregator's accounts for one item and refreshes
// balances on accounts already known.
func SaveAccounts(ctx context.Context, pool *pgxpool.Pool, itemID int64, accounts []plaid.AccountBase) error {
	query := `
		INSERT INTO accounts (item_id, account_id, name, official_name, mask, type, subtype, current_balance, available_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id) DO UPDATE SET
			name = EXCLUDED.name,
			official_name = EXCLUDED.official_name,
			current_balance = EXCLUDED.current_balance,
			available_balance = EXCLUDED.available_balance
	`
	batch := &pgx.Batch{}
	for _, acc := range accounts {
		balances := acc.GetBalances()
		var available decimal.NullDecimal
		if v, ok := balances.GetAvailableOk(); ok && v != nil {
			available = decimal.NewNullDecimal(decimal.NewFromFloat(*v))
		}
		batch.Queue(query,
			itemID,
			acc.GetAccountId(),
			acc.GetName(),
			acc.GetOfficialName(),
			acc.GetMask(),
			string(acc.GetType()),
			string(acc.GetSubtype()),
			decimal.NewFromFloat(balances.GetCurrent()),
			available,
		)
	}
	return pool.SendBatch(ctx, batch).Close()
}

// ApplyTransactionSync writes one page of a transactions sync for an item:
// added and modified rows are upserted, removed ids deleted. Aggregator
// amounts are positive for money leaving the account, so the sign is flipped.
func ApplyTransactionSync(ctx context.Context, pool *pgxpool.Pool, userID int64, added, modified []plaid.Transaction, removed []plaid.RemovedTransaction) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO transactions (id, user_id, account_id, date, amount, category, description, merchant, pending, source)
		SELECT $1, $2, a.id, $4, $5, $6, $7, $8, $9, 'plaid'
		FROM accounts a
		JOIN plaid_items p ON a.item_id = p.id
		WHERE p.user_id = $2 AND a.account_id = $3
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			amount = EXCLUDED.amount,
			description = EXCLUDED.description,
			merchant = EXCLUDED.merchant,
			pending = EXCLUDED.pending,
			updated_at = NOW()
	`
	for _, txn := range append(added, modified...) {
		date, err := time.Parse("2006-01-02", txn.GetDate())
		if err != nil {
			return fmt.Errorf("transaction %s: %w", txn.GetTransactionId(), err)
		}
		category := ""
		if pfc, ok := txn.GetPersonalFinanceCategoryOk(); ok && pfc != nil {
			category = pfc.GetPrimary()
		}
		_, err = tx.Exec(ctx, upsert,
			txn.GetTransactionId(),
			userID,
			txn.GetAccountId(),
			date,
			decimal.NewFromFloat(txn.GetAmount()).Neg(),
			category,
			txn.GetName(),
			txn.GetMerchantName(),
			txn.GetPending(),
		)
		if err != nil {
			return err
		}
	}

	for _, rm := range removed {
		_, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, rm.GetTransactionId(), userID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
