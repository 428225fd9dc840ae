package plaid

import (
	"context"
	"fmt"
	"strconv"

	"github.com/plaid/plaid-go/v41/plaid"
)

// maxSyncPages guards against a cursor that never reports has_more=false.
const maxSyncPages = 50

func NewPlaidClient(clientID, secret, env string) (*plaid.APIClient, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		return nil, fmt.Errorf("invalid Plaid environment: %s", env)
	}

	return plaid.NewAPIClient(configuration), nil
}

func CreateLinkToken(ctx context.Context, client *plaid.APIClient, userID int64) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{
		ClientUserId: strconv.FormatInt(userID, 10),
	}
	request := plaid.NewLinkTokenCreateRequest(
		"FinTrack",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
	)
	request.SetUser(user)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})
	resp, _, err := client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", err
	}
	return resp.GetLinkToken(), nil
}

// LinkedItem is the result of exchanging a Link public token.
type LinkedItem struct {
	ItemID          string
	AccessToken     string
	InstitutionID   string
	InstitutionName string
}

// ExchangePublicToken swaps the public token for an access token and looks up
// the institution. Institution details are best effort.
func ExchangePublicToken(ctx context.Context, client *plaid.APIClient, publicToken string) (*LinkedItem, error) {
	exchangeReq := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	exchangeResp, _, err := client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*exchangeReq).Execute()
	if err != nil {
		return nil, err
	}

	linked := &LinkedItem{
		ItemID:      exchangeResp.GetItemId(),
		AccessToken: exchangeResp.GetAccessToken(),
	}

	itemReq := plaid.NewItemGetRequest(linked.AccessToken)
	itemResp, _, err := client.PlaidApi.ItemGet(ctx).ItemGetRequest(*itemReq).Execute()
	if err != nil {
		return linked, nil
	}
	item := itemResp.GetItem()
	if item.InstitutionId.IsSet() && item.InstitutionId.Get() != nil {
		linked.InstitutionID = *item.InstitutionId.Get()
	}
	if name, ok := item.AdditionalProperties["institution_name"].(string); ok {
		linked.InstitutionName = name
	}
	return linked, nil
}

func GetAccounts(ctx context.Context, client *plaid.APIClient, accessToken string) ([]plaid.AccountBase, error) {
	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, err
	}
	return resp.GetAccounts(), nil
}

// SyncResult accumulates every page of a transactions sync.
type SyncResult struct {
	Added      []plaid.Transaction
	Modified   []plaid.Transaction
	Removed    []plaid.RemovedTransaction
	NextCursor string
}

// SyncTransactions pages through /transactions/sync from cursor until the
// aggregator reports no more updates.
func SyncTransactions(ctx context.Context, client *plaid.APIClient, accessToken, cursor string) (*SyncResult, error) {
	result := &SyncResult{NextCursor: cursor}
	for page := 0; page < maxSyncPages; page++ {
		request := plaid.NewTransactionsSyncRequest(accessToken)
		if result.NextCursor != "" {
			request.SetCursor(result.NextCursor)
		}
		resp, _, err := client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
		if err != nil {
			return nil, err
		}
		result.Added = append(result.Added, resp.GetAdded()...)
		result.Modified = append(result.Modified, resp.GetModified()...)
		result.Removed = append(result.Removed, resp.GetRemoved()...)
		result.NextCursor = resp.GetNextCursor()
		if !resp.GetHasMore() {
			return result, nil
		}
	}
	return nil, fmt.Errorf("transactions sync did not finish after %d pages", maxSyncPages)
}
