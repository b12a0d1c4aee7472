package web

import (
	"net/http"
	"strconv"

	"optic-backoffice/internal/app"
)

// listAccounts handles GET /api/financial-accounts with optional
// type/status/customer_id/supplier_id/sale_id filters.
func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID, _ := strconv.Atoi(q.Get("customer_id"))
	supplierID, _ := strconv.Atoi(q.Get("supplier_id"))
	saleID, _ := strconv.Atoi(q.Get("sale_id"))

	result, err := h.svc.ListAccounts(r.Context(), app.AccountQuery{
		Type:       q.Get("type"),
		Status:     q.Get("status"),
		CustomerID: customerID,
		SupplierID: supplierID,
		SaleID:     saleID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Accounts)
}

// getAccount handles GET /api/financial-accounts/{id}.
func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Account)
}

// createPayable handles POST /api/financial-accounts — manual expenses only;
// sale and purchase schedules are derived, never posted directly.
func (h *Handler) createPayable(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePayableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreatePayable(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Account)
}

// payAccount handles POST /api/financial-accounts/{id}/pay.
func (h *Handler) payAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	// Paying without a body settles the account today.
	var req struct {
		PaidDate string `json:"paid_date"`
	}
	if !decodeJSONOptional(w, r, &req) {
		return
	}
	result, err := h.svc.PayAccount(r.Context(), id, req.PaidDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Account)
}

// sweepOverdue handles POST /api/financial-accounts/sweep-overdue.
func (h *Handler) sweepOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SweepOverdue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		Overdue int `json:"overdue"`
	}
	writeJSON(w, response{Overdue: n})
}

// createPixCharge handles POST /api/financial-accounts/{id}/pix-charge.
func (h *Handler) createPixCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.CreatePixCharge(r.Context(), app.PixChargeRequest{AccountID: id})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		AccountID  int    `json:"account_id"`
		ProviderID string `json:"provider_id"`
		Status     string `json:"status"`
		QRCode     string `json:"qr_code"`
		TicketURL  string `json:"ticket_url"`
	}
	writeJSON(w, response{
		AccountID:  result.Account.ID,
		ProviderID: result.Charge.ProviderID,
		Status:     result.Charge.Status,
		QRCode:     result.Charge.QRCode,
		TicketURL:  result.Charge.TicketURL,
	})
}
