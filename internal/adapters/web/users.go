package web

import (
	"net/http"

	"optic-backoffice/internal/app"
)

// listUsers handles GET /api/users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, users)
}

// createUser handles POST /api/users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req app.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, u)
}

// changePassword handles PUT /api/users/{id}/password.
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), id, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deactivateUser handles DELETE /api/users/{id}.
func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateUser(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
