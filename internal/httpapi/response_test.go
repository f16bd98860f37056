package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

func TestWriteError_MapsKindToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("bad_input", "nope"), http.StatusUnprocessableEntity},
		{"not found", apperr.NotFound("missing", "nope"), http.StatusNotFound},
		{"conflict business", apperr.ConflictBusiness("conflict", "nope"), http.StatusConflict},
		{"unavailable", apperr.Unavailable("unavail", "nope"), http.StatusConflict},
		{"unexpected error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/rates", nil)
			writeError(rec, req, tc.err)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestWriteError_UnexpectedErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rates", nil)
	writeError(rec, req, errors.New("leaked secret detail"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body["detail"], "leaked secret detail")
}

func TestDecodeJSON_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/rates", strings.NewReader("{not json"))
	var dst map[string]any
	err := decodeJSON(req, &dst)

	require.Error(t, err)
	appErr, ok := asAppErr(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
}
