package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"optic-backoffice/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps core sentinel errors onto HTTP statuses:
// not found → 404, invalid transition → 409, insufficient stock → 422,
// invalid input → 400. Anything not wrapping a sentinel is an internal
// failure; its text is logged server-side and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case errors.Is(err, core.ErrInsufficientStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	default:
		log.Printf("request %s: %v", requestIDFromContext(r.Context()), err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
