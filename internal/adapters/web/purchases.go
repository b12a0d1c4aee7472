package web

import (
	"net/http"
	"strconv"

	"optic-backoffice/internal/app"
	"optic-backoffice/internal/core"
)

// listSuppliers handles GET /api/suppliers.
func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, suppliers)
}

// createSupplier handles POST /api/suppliers.
func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var sup core.Supplier
	if !decodeJSON(w, r, &sup) {
		return
	}
	created, err := h.svc.CreateSupplier(r.Context(), sup)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

// updateSupplier handles PUT /api/suppliers/{id}.
func (h *Handler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var sup core.Supplier
	if !decodeJSON(w, r, &sup) {
		return
	}
	sup.ID = id
	updated, err := h.svc.UpdateSupplier(r.Context(), sup)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, updated)
}

// listPurchases handles GET /api/purchases?supplier_id=1.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	supplierID, _ := strconv.Atoi(r.URL.Query().Get("supplier_id"))
	result, err := h.svc.ListPurchases(r.Context(), supplierID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchases)
}

// createPurchase handles POST /api/purchases.
func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = authFromContext(r.Context()).UserID

	result, err := h.svc.CreatePurchase(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Purchase)
}

// getPurchase handles GET /api/purchases/{id}.
func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetPurchase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}

// cancelPurchase handles POST /api/purchases/{id}/cancel.
func (h *Handler) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.CancelPurchase(r.Context(), id, authFromContext(r.Context()).UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Purchase)
}
