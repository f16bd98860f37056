// Package httpapi wires chi routers for the api and worker processes,
// translating HTTP requests into calls on the domain packages and
// apperr.Error into the status codes spec §6/§7 define.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
)

func asAppErr(err error) (*apperr.Error, bool) {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps err onto the §7 error taxonomy's HTTP status and a
// client-safe `{detail}` (or `{code, detail}`) body. Non-*apperr.Error
// values are treated as unexpected internal failures and logged with
// their cause, never exposed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := asAppErr(err)
	if !ok {
		logging.FromContext(r.Context()).Error().Err(err).Msg("unhandled internal error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
		return
	}

	logging.FromContext(r.Context()).Warn().
		Str("kind", string(appErr.Kind)).
		Str("code", appErr.Code).
		Msg("request failed")

	writeJSON(w, apperr.HTTPStatus(appErr.Kind), map[string]string{
		"code":   appErr.Code,
		"detail": appErr.Message,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid_body", "request body is not valid JSON")
	}
	return nil
}
