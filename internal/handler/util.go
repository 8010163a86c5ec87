package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextlevelrentals/assistant-platform/internal/apperr"
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

// writeAppError maps a service error onto an HTTP status.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.KindPermissionDenied:
		status = http.StatusForbidden
	case apperr.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, apperr.Message(err))
}
