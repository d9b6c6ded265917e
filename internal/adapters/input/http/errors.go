package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/service"
)

// Numeric error codes understood by controller clients.
const (
	errCodeNoBuffer = 3
	errCodeJSON     = 9
)

// retryAfterSeconds is sent with 503 while the staging buffer is busy.
const retryAfterSeconds = "1"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeErrorCode(w http.ResponseWriter, status, code int) {
	writeJSON(w, status, map[string]int{"error": code})
}

// writeFailure maps a state port error onto a response.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, buffer.ErrLockUnavailable):
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeErrorCode(w, http.StatusServiceUnavailable, errCodeNoBuffer)
	case errors.As(err, &tooLarge):
		writeErrorCode(w, http.StatusRequestEntityTooLarge, errCodeNoBuffer)
	case errors.Is(err, service.ErrInvalidDocument):
		writeErrorCode(w, http.StatusBadRequest, errCodeJSON)
	case errors.Is(err, service.ErrInvalidConfig):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
	}
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;").Replace(s)
}
