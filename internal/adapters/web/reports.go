package web

import (
	"net/http"
	"time"
)

// salesSummary handles GET /api/reports/sales-summary?from=2026-01-01&to=2026-01-31.
// Without parameters it covers the current month to date.
func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02")
		to = now.Format("2006-01-02")
	}

	summary, err := h.svc.GetSalesSummary(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// receivablesAging handles GET /api/reports/receivables-aging.
func (h *Handler) receivablesAging(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.svc.GetReceivablesAging(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, buckets)
}
