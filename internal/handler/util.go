package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capitalize-ai/callcenter-agent/internal/errs"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeAppError maps an application error onto its status code and
// stable kind. Foreign errors become opaque 500s.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *errs.Error
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.StatusCode(), map[string]string{
			"error": appErr.Message,
			"kind":  string(appErr.Kind),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}
