// Package handlers provides the REST API handlers for the desktop shell.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apperr "github.com/docvault/docvault/internal/errors"
)

// Events is the outbound event surface handlers push progress through.
// The desktop websocket hub implements it.
type Events interface {
	Emit(event string, data map[string]interface{})
}

// writeJSON sends a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps application error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperr.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case apperr.Is(err, apperr.ErrInvalid),
		apperr.Is(err, apperr.ErrCorruptArchive),
		apperr.Is(err, apperr.ErrUnsupportedVersion),
		apperr.Is(err, apperr.ErrConflictUnresolved):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// readJSON decodes a request body.
func readJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// queryID parses an int64 query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperr.Newf(apperr.ErrInvalid, "%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.ErrInvalid, "invalid %s: %q", name, raw)
	}
	return id, nil
}

// formID parses an int64 form value.
func formID(r *http.Request, name string) (int64, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return 0, apperr.Newf(apperr.ErrInvalid, "%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.ErrInvalid, "invalid %s: %q", name, raw)
	}
	return id, nil
}

// requireMethod guards a handler to one HTTP method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
