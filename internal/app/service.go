package app

import (
	"context"
	"time"

	"optic-backoffice/internal/core"
)

// ApplicationService is the single interface all adapters call. It
// decouples presentation from business logic; implementations contain no
// display logic of any kind.
type ApplicationService interface {
	// CreateQuote creates a pending quote with server-side pricing.
	CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteResult, error)

	// GetQuote returns a quote with its items.
	GetQuote(ctx context.Context, id int) (*QuoteResult, error)

	// ListQuotes returns quotes, optionally filtered by status.
	ListQuotes(ctx context.Context, status string) (*QuoteListResult, error)

	// ReviewQuote moves a pending quote to approved or rejected.
	ReviewQuote(ctx context.Context, id int, status string) (*QuoteResult, error)

	// DeleteQuote removes a non-converted quote.
	DeleteQuote(ctx context.Context, id int) error

	// ExpireQuotes marks pending quotes past their validity as expired.
	ExpireQuotes(ctx context.Context) (int, error)

	// ConvertQuote turns a pending or approved quote into a sale,
	// decrementing stock and deriving the receivable schedule atomically.
	ConvertQuote(ctx context.Context, req ConvertQuoteRequest) (*SaleResult, error)

	// CreateSale records a direct sale with the same atomic guarantees
	// as conversion.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error)

	// GetSale returns a sale with its items.
	GetSale(ctx context.Context, id int) (*SaleResult, error)

	// ListSales returns sales, optionally filtered by customer and status.
	ListSales(ctx context.Context, customerID int, status string) (*SaleListResult, error)

	// CancelSale reverses an active sale with no paid installments.
	CancelSale(ctx context.Context, saleID, userID int) (*SaleResult, error)

	// GetAccount returns one financial account.
	GetAccount(ctx context.Context, id int) (*AccountResult, error)

	// ListAccounts returns financial accounts matching the query.
	ListAccounts(ctx context.Context, q AccountQuery) (*AccountListResult, error)

	// CreatePayable records a manual expense obligation.
	CreatePayable(ctx context.Context, req CreatePayableRequest) (*AccountResult, error)

	// PayAccount settles a pending or overdue account.
	PayAccount(ctx context.Context, id int, paidDate string) (*AccountResult, error)

	// SweepOverdue flips past-due pending accounts to overdue.
	SweepOverdue(ctx context.Context) (int, error)

	// Customer master data.
	CreateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error)
	UpdateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error)
	GetCustomer(ctx context.Context, id int) (*core.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]core.Customer, error)
	DeleteCustomer(ctx context.Context, id int) error

	// Product catalog and stock.
	CreateProduct(ctx context.Context, p core.Product) (*core.Product, error)
	UpdateProduct(ctx context.Context, p core.Product) (*core.Product, error)
	GetProduct(ctx context.Context, id int) (*core.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]core.Product, error)
	ListLowStock(ctx context.Context) ([]core.Product, error)
	AdjustStock(ctx context.Context, productID, delta int) error
	DeactivateProduct(ctx context.Context, id int) error

	// Optical prescriptions.
	CreatePrescription(ctx context.Context, p core.Prescription) (*core.Prescription, error)
	GetPrescription(ctx context.Context, id int) (*core.Prescription, error)
	ListPrescriptions(ctx context.Context, customerID int) ([]core.Prescription, error)
	DeletePrescription(ctx context.Context, id int) error

	// Supplier master data and purchases.
	CreateSupplier(ctx context.Context, sup core.Supplier) (*core.Supplier, error)
	UpdateSupplier(ctx context.Context, sup core.Supplier) (*core.Supplier, error)
	ListSuppliers(ctx context.Context) ([]core.Supplier, error)
	CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*PurchaseResult, error)
	GetPurchase(ctx context.Context, id int) (*PurchaseResult, error)
	ListPurchases(ctx context.Context, supplierID int) (*PurchaseListResult, error)
	CancelPurchase(ctx context.Context, purchaseID, userID int) (*PurchaseResult, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// User administration.
	CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error)
	GetUser(ctx context.Context, id int) (*core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	ChangePassword(ctx context.Context, id int, newPassword string) error
	DeactivateUser(ctx context.Context, id int) error

	// Reporting aggregates.
	GetSalesSummary(ctx context.Context, from, to string) (*core.SalesSummary, error)
	GetReceivablesAging(ctx context.Context, asOf time.Time) ([]core.AgingBucket, error)

	// SuggestQuote asks the AI assistant to draft quote lines from a
	// natural-language description. The suggestion is never persisted;
	// the caller submits it through CreateQuote after review.
	SuggestQuote(ctx context.Context, req QuoteAssistRequest) (*QuoteSuggestionResult, error)

	// CreatePixCharge requests a pix charge from the payment gateway for
	// one open receivable installment.
	CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixChargeResult, error)
}
