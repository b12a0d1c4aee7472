package web

import (
	"net/http"

	"optic-backoffice/internal/app"
)

// listQuotes handles GET /api/quotes?status=pending.
func (h *Handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListQuotes(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Quotes)
}

// createQuote handles POST /api/quotes. The acting user comes from the
// JWT claims, never from the request body.
func (h *Handler) createQuote(w http.ResponseWriter, r *http.Request) {
	var req app.CreateQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = authFromContext(r.Context()).UserID

	result, err := h.svc.CreateQuote(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Quote)
}

// getQuote handles GET /api/quotes/{id}.
func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetQuote(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Quote)
}

// reviewQuote handles POST /api/quotes/{id}/review — approve or reject.
func (h *Handler) reviewQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.ReviewQuote(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Quote)
}

// convertQuote handles POST /api/quotes/{id}/convert. The body is
// optional; converting without one defers the payment decision.
func (h *Handler) convertQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.ConvertQuoteRequest
	if !decodeJSONOptional(w, r, &req) {
		return
	}
	req.QuoteID = id
	req.UserID = authFromContext(r.Context()).UserID

	result, err := h.svc.ConvertQuote(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Sale)
}

// deleteQuote handles DELETE /api/quotes/{id}.
func (h *Handler) deleteQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteQuote(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// expireQuotes handles POST /api/quotes/expire.
func (h *Handler) expireQuotes(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ExpireQuotes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Expired int `json:"expired"`
	}
	writeJSON(w, response{Expired: n})
}
