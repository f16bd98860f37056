package middleware

import (
	"net/http"
	"strings"

	"github.com/marcioluisms/hotelly2-sub001/internal/oidcauth"
)

// TaskAuth authenticates the worker's /tasks/... endpoints: a real
// OIDC bearer token in production, or the shared-secret header when
// running under the local-development audience sentinel (spec §4.I).
func TaskAuth(verifier *oidcauth.Verifier, isLocalDev bool, sharedSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLocalDev {
				if sharedSecret == "" || r.Header.Get(oidcauth.SharedSecretHeader) != sharedSecret {
					http.Error(w, "missing or invalid internal tasks secret", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if _, err := verifier.Verify(r.Context(), strings.TrimPrefix(authz, prefix)); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
