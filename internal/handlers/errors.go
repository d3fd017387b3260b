package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/mtg-cards/internal/common"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// JSONMessage sends {"message": message}. Used for both successes and errors.
func JSONMessage(w http.ResponseWriter, message string, status int) {
	JSON(w, status, map[string]string{"message": message})
}

// JSONError sends a JSON error response with a single "message" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	JSONMessage(w, message, status)
}

// JSONValidationError sends a JSON error response with "message" and optional "fields" for field-level details.
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	out := map[string]interface{}{"message": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	JSON(w, status, out)
}

// WriteError maps err onto the error taxonomy. msg is shown to the client for known
// kinds; anything unknown is logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		JSONError(w, msg, http.StatusBadRequest)
	case errors.Is(err, common.ErrUnauthorized):
		JSONError(w, msg, http.StatusUnauthorized)
	case errors.Is(err, common.ErrForbidden):
		JSONError(w, msg, http.StatusForbidden)
	case errors.Is(err, common.ErrNotFound):
		JSONError(w, msg, http.StatusNotFound)
	case errors.Is(err, common.ErrConflict):
		JSONError(w, msg, http.StatusConflict)
	case errors.Is(err, common.ErrUpstreamUnavailable):
		slog.Warn("upstream unavailable", "path", r.URL.Path, "error", err)
		JSONError(w, msg, http.StatusBadGateway)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
