package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/rbac"
)

func TestAuthenticate_MissingBearer_Returns401(t *testing.T) {
	handler := Authenticate(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run without a bearer token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/rates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		have   rbac.Role
		want   rbac.Role
		status int
	}{
		{"exact match", rbac.RoleStaff, rbac.RoleStaff, http.StatusOK},
		{"higher role satisfies lower requirement", rbac.RoleOwner, rbac.RoleViewer, http.StatusOK},
		{"lower role rejected", rbac.RoleViewer, rbac.RoleStaff, http.StatusForbidden},
		{"unset role rejected", rbac.Role(""), rbac.RoleViewer, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := RequireRole(tc.want)(next)

			req := httptest.NewRequest(http.MethodGet, "/rates", nil)
			ctx := context.WithValue(req.Context(), roleCtxKey, tc.have)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
