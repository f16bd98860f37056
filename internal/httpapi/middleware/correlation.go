// Package middleware holds the chi-compatible middleware shared by
// every router in cmd/api and cmd/worker: correlation id propagation,
// bearer-token/role authentication, and the request logger.
package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
)

// CorrelationIDHeader is the header a caller may set to propagate its
// own correlation id; a new one is minted when absent.
const CorrelationIDHeader = "X-Correlation-Id"

// RequestLogger attaches the process-wide logger to every request's
// context, ahead of Correlation so the latter's Str("correlation_id", ...)
// has a live logger to extend instead of the Nop fallback.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithLogger(r.Context(), base)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Correlation attaches a correlation id to the request context and
// logger, and echoes it back on the response.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logging.WithCorrelationID(r.Context(), id)
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
