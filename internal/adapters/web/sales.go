package web

import (
	"net/http"
	"strconv"

	"optic-backoffice/internal/app"
)

// listSales handles GET /api/sales?customer_id=1&status=active.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	customerID, _ := strconv.Atoi(r.URL.Query().Get("customer_id"))
	result, err := h.svc.ListSales(r.Context(), customerID, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sales)
}

// createSale handles POST /api/sales — a direct sale without a quote.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = authFromContext(r.Context()).UserID

	result, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Sale)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}

// cancelSale handles POST /api/sales/{id}/cancel.
func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.CancelSale(r.Context(), id, authFromContext(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Sale)
}
