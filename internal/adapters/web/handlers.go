package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"optic-backoffice/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API (401 JSON if unauthenticated) ──────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Quotes
		r.Get("/api/quotes", h.listQuotes)
		r.Post("/api/quotes", h.createQuote)
		r.Post("/api/quotes/expire", h.expireQuotes)
		r.Get("/api/quotes/{id}", h.getQuote)
		r.Delete("/api/quotes/{id}", h.deleteQuote)
		r.Post("/api/quotes/{id}/review", h.reviewQuote)
		r.Post("/api/quotes/{id}/convert", h.convertQuote)

		// Sales
		r.Get("/api/sales", h.listSales)
		r.Post("/api/sales", h.createSale)
		r.Get("/api/sales/{id}", h.getSale)
		r.Post("/api/sales/{id}/cancel", h.cancelSale)

		// Financial accounts
		r.Get("/api/financial-accounts", h.listAccounts)
		r.Post("/api/financial-accounts", h.createPayable)
		r.Post("/api/financial-accounts/sweep-overdue", h.sweepOverdue)
		r.Get("/api/financial-accounts/{id}", h.getAccount)
		r.Post("/api/financial-accounts/{id}/pay", h.payAccount)
		r.Post("/api/financial-accounts/{id}/pix-charge", h.createPixCharge)

		// Customers and prescriptions
		r.Get("/api/customers", h.listCustomers)
		r.Post("/api/customers", h.createCustomer)
		r.Get("/api/customers/{id}", h.getCustomer)
		r.Put("/api/customers/{id}", h.updateCustomer)
		r.Delete("/api/customers/{id}", h.deleteCustomer)
		r.Get("/api/customers/{id}/prescriptions", h.listPrescriptions)
		r.Post("/api/customers/{id}/prescriptions", h.createPrescription)
		r.Get("/api/prescriptions/{id}", h.getPrescription)
		r.Delete("/api/prescriptions/{id}", h.deletePrescription)

		// Products
		r.Get("/api/products", h.listProducts)
		r.Post("/api/products", h.createProduct)
		r.Get("/api/products/low-stock", h.listLowStock)
		r.Get("/api/products/{id}", h.getProduct)
		r.Put("/api/products/{id}", h.updateProduct)
		r.Delete("/api/products/{id}", h.deactivateProduct)
		r.Post("/api/products/{id}/adjust-stock", h.adjustStock)

		// Suppliers and purchases
		r.Get("/api/suppliers", h.listSuppliers)
		r.Post("/api/suppliers", h.createSupplier)
		r.Put("/api/suppliers/{id}", h.updateSupplier)
		r.Get("/api/purchases", h.listPurchases)
		r.Post("/api/purchases", h.createPurchase)
		r.Get("/api/purchases/{id}", h.getPurchase)
		r.Post("/api/purchases/{id}/cancel", h.cancelPurchase)

		// Reports
		r.Get("/api/reports/sales-summary", h.salesSummary)
		r.Get("/api/reports/receivables-aging", h.receivablesAging)

		// AI quote assistant
		r.Post("/api/assistant/quote", h.suggestQuote)

		// User administration (admin only)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/api/users", h.listUsers)
			r.Post("/api/users", h.createUser)
			r.Put("/api/users/{id}/password", h.changePassword)
			r.Delete("/api/users/{id}", h.deactivateUser)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts and parses the {id} URL parameter.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeJSONOptional is decodeJSON for endpoints whose body is optional:
// an absent or empty body leaves v at its zero value.
func decodeJSONOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
		return false
	}
	writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	return false
}
