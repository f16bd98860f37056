package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/rbac"
	"github.com/marcioluisms/hotelly2-sub001/internal/oidcauth"
)

type ctxKey struct{ name string }

var (
	propertyCtxKey = &ctxKey{"property_id"}
	roleCtxKey     = &ctxKey{"role"}
)

// PropertyID returns the authenticated request's property id, or "" if
// none was attached (e.g. an unauthenticated route).
func PropertyID(ctx context.Context) string {
	v, _ := ctx.Value(propertyCtxKey).(string)
	return v
}

// RequestRole returns the authenticated request's role, or "" if none
// was attached.
func RequestRole(ctx context.Context) rbac.Role {
	v, _ := ctx.Value(roleCtxKey).(rbac.Role)
	return v
}

// Authenticate verifies the request's bearer token via verifier and
// attaches its property id and role claims to the context. spec §6:
// "authentication via OIDC bearer token unless noted".
func Authenticate(verifier *oidcauth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(authz, prefix)

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			propertyID, _ := claims["property_id"].(string)
			roleClaim, _ := claims["role"].(string)
			role, err := rbac.ParseRole(roleClaim)
			if err != nil || propertyID == "" {
				http.Error(w, "token missing property_id or role claim", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), propertyCtxKey, propertyID)
			ctx = context.WithValue(ctx, roleCtxKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated role does not
// satisfy want, per the role column of spec §6's endpoint table.
func RequireRole(want rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := RequestRole(r.Context())
			if !rbac.Satisfies(have, want) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
