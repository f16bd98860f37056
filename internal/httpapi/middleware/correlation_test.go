package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
)

func TestCorrelation_EchoesIncomingID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.CorrelationID(r.Context())
	})
	handler := Correlation(next)

	req := httptest.NewRequest(http.MethodGet, "/rates", nil)
	req.Header.Set(CorrelationIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(CorrelationIDHeader))
}

func TestCorrelation_MintsIDWhenAbsent(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.CorrelationID(r.Context())
	})
	handler := Correlation(next)

	req := httptest.NewRequest(http.MethodGet, "/rates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))
}

func TestRequestLogger_AttachesLiveLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info().Msg("handled")
	})
	handler := RequestLogger(base)(next)

	req := httptest.NewRequest(http.MethodGet, "/rates", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Contains(t, buf.String(), "handled", "request logger must not fall back to the discarding Nop logger")
}
