package handlers

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack-server/src/util"
)

// webhookKeys returns a key source holding one fresh P-256 key and a
// function signing bodies with it.
func webhookKeys(t *testing.T) (util.KeySource, func(body string, issued time.Time) string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	jwk := &plaid.JWKPublicKey{
		Kid: "kid-1",
		Kty: "EC",
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(key.X.FillBytes(make([]byte, 32))),
		Y:   base64.RawURLEncoding.EncodeToString(key.Y.FillBytes(make([]byte, 32))),
	}
	keys := func(_ context.Context, kid string) (*plaid.JWKPublicKey, error) {
		if kid != jwk.Kid {
			return nil, errors.New("unknown key")
		}
		return jwk, nil
	}
	sign := func(body string, issued time.Time) string {
		sum := sha256.Sum256([]byte(body))
		token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
			"iat":                 issued.Unix(),
			"request_body_sha256": hex.EncodeToString(sum[:]),
		})
		token.Header["kid"] = jwk.Kid
		signed, err := token.SignedString(key)
		require.NoError(t, err)
		return signed
	}
	return keys, sign
}

func postWebhook(h http.HandlerFunc, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/banking/webhook", strings.NewReader(body))
	if token != "" {
		req.Header.Set(util.WebhookVerificationHeader, token)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestPlaidWebhookVerification(t *testing.T) {
	keys, sign := webhookKeys(t)
	h := PlaidWebhook(keys, nil, nil, nil)
	body := `{"webhook_type":"ITEM","webhook_code":"WEBHOOK_UPDATE_ACKNOWLEDGED","item_id":"item-1"}`

	rec := postWebhook(h, body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(h, body, sign(`{"item_id":"other"}`, time.Now()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(h, body, sign(body, time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postWebhook(h, body, sign(body, time.Now()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestPlaidWebhookRejectsMalformedSignedBody(t *testing.T) {
	keys, sign := webhookKeys(t)
	h := PlaidWebhook(keys, nil, nil, nil)

	body := `{"webhook_type":`
	rec := postWebhook(h, body, sign(body, time.Now()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteSyncError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSyncError(rec, &syncError{http.StatusBadGateway, "failed to fetch accounts", errors.New("timeout")})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to fetch accounts\n", rec.Body.String())

	rec = httptest.NewRecorder()
	writeSyncError(rec, errors.New("timeout"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
