// Package oidcauth implements the bearer-token authentication between
// the api and worker processes (spec §4.I, §5, §9): a process-wide JWKS
// cache with a ten-minute TTL and a single refresh mutex, a bearer
// verifier that trusts only TASKS_OIDC_AUDIENCE, and a shared internal
// secret header fallback used in local development (detected by the
// sentinel audience value).
package oidcauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// jwksTTL is the process-wide JWKS cache lifetime (spec §5).
const jwksTTL = 10 * time.Minute

// JWKSCache is the single mutable cell described in spec §9: a
// mutex-guarded JWK set refreshed at most once per TTL, and at most
// once more per request on a signature failure.
type JWKSCache struct {
	url string

	mu         sync.Mutex
	set        jwk.Set
	fetchedAt  time.Time
	refreshing bool
}

// NewJWKSCache builds a cache that will lazily fetch from url.
func NewJWKSCache(url string) *JWKSCache {
	return &JWKSCache{url: url}
}

func (c *JWKSCache) stale() bool {
	return c.set == nil || time.Since(c.fetchedAt) > jwksTTL
}

// Get returns the cached JWK set, refreshing it if stale. forceRefresh
// bypasses the TTL check once, for the single forced refresh per
// request that a signature failure is allowed to trigger.
func (c *JWKSCache) Get(ctx context.Context, forceRefresh bool) (jwk.Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && !c.stale() {
		return c.set, nil
	}

	set, err := jwk.Fetch(ctx, c.url)
	if err != nil {
		if c.set != nil {
			// Serve stale data rather than fail outright; the caller's
			// forced-refresh retry on signature failure is the real guard.
			return c.set, nil
		}
		return nil, apperr.Wrap(apperr.KindProviderTransient, "jwks_fetch_failed", "failed to fetch JWKS", err)
	}
	c.set = set
	c.fetchedAt = time.Now()
	return c.set, nil
}

// Verifier validates OIDC bearer tokens under a single fixed audience.
type Verifier struct {
	cache    *JWKSCache
	issuer   string
	audience string
}

// NewVerifier builds a Verifier bound to exactly one audience, matching
// "the handler validates the token under the same audience" (spec §4.I).
func NewVerifier(cache *JWKSCache, issuer, audience string) *Verifier {
	return &Verifier{cache: cache, issuer: issuer, audience: audience}
}

// Verify parses and validates tokenString, retrying once against a
// forced JWKS refresh if the first attempt fails on a signature error
// (an invalid signature, or a key id absent from the cached set).
func (v *Verifier) Verify(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	claims, err := v.verifyOnce(ctx, tokenString, false)
	if err != nil && (errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable)) {
		// One forced refresh per request, per spec §5.
		claims, err = v.verifyOnce(ctx, tokenString, true)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuth, "invalid_token", "token verification failed", err)
	}
	return claims, nil
}

func (v *Verifier) verifyOnce(ctx context.Context, tokenString string, forceRefresh bool) (jwt.MapClaims, error) {
	set, err := v.cache.Get(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("oidcauth: kid %q not found", kid)
		}
		var raw interface{}
		if err := key.Raw(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	token, err := parser.ParseWithClaims(tokenString, claims, keyFunc)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("oidcauth: parse failed: %w", err)
	}

	if v.audience != "" {
		aud, _ := claims["aud"].(string)
		if aud != v.audience {
			return nil, fmt.Errorf("oidcauth: unexpected audience %q", aud)
		}
	}
	if v.issuer != "" {
		iss, _ := claims["iss"].(string)
		if iss != v.issuer {
			return nil, fmt.Errorf("oidcauth: unexpected issuer %q", iss)
		}
	}
	return claims, nil
}
