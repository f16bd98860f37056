package oidcauth

import (
	"context"

	"google.golang.org/api/idtoken"
)

// localDevAudience mirrors config.localDevAudience; duplicated here as a
// literal to avoid a dependency from oidcauth back onto config.
const localDevAudience = "local-dev"

// SharedSecretHeader is the header name used for the local-development
// fallback described in spec §4.I.
const SharedSecretHeader = "X-Internal-Tasks-Secret"

// TokenMinter produces the bearer credential the dispatcher's http
// backend attaches to its request to the worker.
type TokenMinter interface {
	// Mint returns either an "Authorization: Bearer ..." value or, in
	// local development, a shared-secret header value plus its name.
	Mint(ctx context.Context, audience string) (headerName, headerValue string, err error)
}

// GoogleIDTokenMinter mints a real OIDC ID token scoped to audience
// using the ambient service-account credentials, for production use.
type GoogleIDTokenMinter struct {
	ServiceAccountEmail string
}

func (m *GoogleIDTokenMinter) Mint(ctx context.Context, audience string) (string, string, error) {
	ts, err := idtoken.NewTokenSource(ctx, audience)
	if err != nil {
		return "", "", err
	}
	tok, err := ts.Token()
	if err != nil {
		return "", "", err
	}
	return "Authorization", "Bearer " + tok.AccessToken, nil
}

// SharedSecretMinter implements the local-dev fallback: both sides fall
// back to a shared internal secret header when the audience equals the
// sentinel local-dev value.
type SharedSecretMinter struct {
	Secret string
}

func (m *SharedSecretMinter) Mint(ctx context.Context, audience string) (string, string, error) {
	return SharedSecretHeader, m.Secret, nil
}

// IsLocalDevAudience reports whether audience is the sentinel value that
// switches both the dispatcher and the worker onto the shared-secret
// path instead of OIDC.
func IsLocalDevAudience(audience string) bool {
	return audience == localDevAudience
}
