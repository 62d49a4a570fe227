package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// writeJSON encodes v as the response body with status. v is marshaled
// before anything is written, so an encode failure is logged and answered
// with a plain 500 instead of status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("httpapi: encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError renders a single-line, user-visible error message rather
// than leaking an internal error chain to the client.
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, map[string]string{"error": err.Error()})
}
