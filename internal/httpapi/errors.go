package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"hy2core/internal/controller"
	"hy2core/internal/registry"
	"hy2core/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	var he HTTPError
	switch {
	case controller.IsAlreadyRunning(err), controller.IsNotRunning(err):
		return http.StatusConflict
	case registry.IsProfileNotFound(err):
		return http.StatusNotFound
	case controller.IsEngineError(err):
		return http.StatusUnprocessableEntity
	case errors.As(err, &he):
		return he.StatusCode()
	default:
		return http.StatusInternalServerError
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("encode response")
	}
}
