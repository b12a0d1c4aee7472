package web

import (
	"net/http"
	"strconv"

	"optic-backoffice/internal/core"

	"github.com/go-chi/chi/v5"
)

// listCustomers handles GET /api/customers?search=name.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// createCustomer handles POST /api/customers.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var c core.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	created, err := h.svc.CreateCustomer(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

// getCustomer handles GET /api/customers/{id}.
func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// updateCustomer handles PUT /api/customers/{id}.
func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var c core.Customer
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	updated, err := h.svc.UpdateCustomer(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, updated)
}

// deleteCustomer handles DELETE /api/customers/{id}.
func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listPrescriptions handles GET /api/customers/{id}/prescriptions.
func (h *Handler) listPrescriptions(w http.ResponseWriter, r *http.Request) {
	customerID, ok := idParam(w, r)
	if !ok {
		return
	}
	prescriptions, err := h.svc.ListPrescriptions(r.Context(), customerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, prescriptions)
}

// createPrescription handles POST /api/customers/{id}/prescriptions.
func (h *Handler) createPrescription(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || customerID <= 0 {
		writeError(w, r, "invalid customer id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var p core.Prescription
	if !decodeJSON(w, r, &p) {
		return
	}
	p.CustomerID = customerID
	p.UserID = authFromContext(r.Context()).UserID

	created, err := h.svc.CreatePrescription(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, created)
}

// getPrescription handles GET /api/prescriptions/{id}.
func (h *Handler) getPrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPrescription(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// deletePrescription handles DELETE /api/prescriptions/{id}.
func (h *Handler) deletePrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePrescription(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
