package util

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plaid/plaid-go/v41/plaid"
)

// Plaid signs each webhook with an ES256 JWT carried in this header. See
// https://plaid.com/docs/api/webhooks/webhook-verification/
const WebhookVerificationHeader = "Plaid-Verification"

const (
	webhookMaxAge = 5 * time.Minute
	webhookLeeway = 30 * time.Second
)

var (
	ErrMissingVerification = errors.New("missing webhook verification token")
	ErrWebhookRejected     = errors.New("webhook verification failed")
)

// KeySource resolves a verification key by its key id.
type KeySource func(ctx context.Context, kid string) (*plaid.JWKPublicKey, error)

// PlaidKeySource fetches keys with /webhook_verification_key/get and keeps
// them for the life of the process.
func PlaidKeySource(client *plaid.APIClient) KeySource {
	var mu sync.Mutex
	keys := map[string]*plaid.JWKPublicKey{}

	return func(ctx context.Context, kid string) (*plaid.JWKPublicKey, error) {
		mu.Lock()
		key, ok := keys[kid]
		mu.Unlock()
		if ok {
			return key, nil
		}

		req := *plaid.NewWebhookVerificationKeyGetRequest(kid)
		resp, _, err := client.PlaidApi.WebhookVerificationKeyGet(ctx).
			WebhookVerificationKeyGetRequest(req).
			Execute()
		if err != nil {
			return nil, fmt.Errorf("fetch verification key %s: %w", kid, err)
		}
		fetched := resp.GetKey()
		if fetched.Kid != kid {
			return nil, fmt.Errorf("verification key %s: plaid returned %q", kid, fetched.Kid)
		}

		mu.Lock()
		keys[kid] = &fetched
		mu.Unlock()
		return &fetched, nil
	}
}

type webhookClaims struct {
	BodySHA256 string `json:"request_body_sha256"`
	jwt.RegisteredClaims
}

// VerifyWebhook checks that token was signed by Plaid for exactly this body
// and was issued within the last five minutes relative to now.
func VerifyWebhook(ctx context.Context, keys KeySource, body []byte, token string, now time.Time) error {
	if token == "" {
		return ErrMissingVerification
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(webhookLeeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	unverified, _, err := parser.ParseUnverified(token, &webhookClaims{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}
	if unverified.Method.Alg() != jwt.SigningMethodES256.Alg() {
		return fmt.Errorf("%w: unexpected alg %q", ErrWebhookRejected, unverified.Method.Alg())
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return fmt.Errorf("%w: missing kid", ErrWebhookRejected)
	}

	jwk, err := keys(ctx, kid)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}
	pub, err := ecdsaKey(jwk)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}

	var claims webhookClaims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return pub, nil
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookRejected, err)
	}

	if claims.IssuedAt == nil {
		return fmt.Errorf("%w: missing iat", ErrWebhookRejected)
	}
	if now.Sub(claims.IssuedAt.Time) > webhookMaxAge {
		return fmt.Errorf("%w: issued at %s, older than %s", ErrWebhookRejected, claims.IssuedAt.Time.UTC().Format(time.RFC3339), webhookMaxAge)
	}

	sum := sha256.Sum256(body)
	got := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(claims.BodySHA256))) != 1 {
		return fmt.Errorf("%w: body hash mismatch", ErrWebhookRejected)
	}
	return nil
}

// ecdsaKey converts a P-256 JWK into a public key.
func ecdsaKey(jwk *plaid.JWKPublicKey) (*ecdsa.PublicKey, error) {
	if jwk == nil || jwk.Kty != "EC" || jwk.Crv != "P-256" {
		return nil, errors.New("unsupported verification key")
	}
	x, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil || len(x) == 0 {
		return nil, fmt.Errorf("decode key x: %v", err)
	}
	y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil || len(y) == 0 {
		return nil, fmt.Errorf("decode key y: %v", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}
