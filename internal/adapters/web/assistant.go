package web

import (
	"net/http"

	"optic-backoffice/internal/app"
)

// suggestQuote handles POST /api/assistant/quote. The suggestion is
// advisory: the caller reviews it and submits a real quote afterwards.
func (h *Handler) suggestQuote(w http.ResponseWriter, r *http.Request) {
	var req app.QuoteAssistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.SuggestQuote(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Suggestion)
}
