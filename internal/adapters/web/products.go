package web

import (
	"net/http"

	"optic-backoffice/internal/core"
)

// listProducts handles GET /api/products?active=true.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	products, err := h.svc.ListProducts(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, products)
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p core.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	created, err := h.svc.CreateProduct(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

// getProduct handles GET /api/products/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// updateProduct handles PUT /api/products/{id}.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var p core.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = id
	updated, err := h.svc.UpdateProduct(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, updated)
}

// listLowStock handles GET /api/products/low-stock.
func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListLowStock(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, products)
}

// adjustStock handles POST /api/products/{id}/adjust-stock.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		writeError(w, r, "delta cannot be zero", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.AdjustStock(r.Context(), id, req.Delta); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// deactivateProduct handles DELETE /api/products/{id} — products are
// deactivated, never removed, so historical sales keep their references.
func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
