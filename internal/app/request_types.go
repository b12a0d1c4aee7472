package app

import (
	"github.com/shopspring/decimal"
)

// LineInput is a single product line within a quote, sale, or purchase
// request. UnitPrice zero means "use the catalog price"; purchases always
// carry an explicit cost.
type LineInput struct {
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateQuoteRequest is the input for creating a new quote.
type CreateQuoteRequest struct {
	CustomerID int             `json:"customer_id"`
	UserID     int             `json:"-"`
	Discount   decimal.Decimal `json:"discount"`
	ValidUntil string          `json:"valid_until"` // YYYY-MM-DD, optional
	Notes      string          `json:"notes"`
	Lines      []LineInput     `json:"items"`
}

// PaymentRequest carries payment instructions as wire-level strings; they
// are parsed into the closed enums before reaching core.
type PaymentRequest struct {
	Method       string `json:"payment_method"`
	Status       string `json:"payment_status"`
	Installments int    `json:"installments"`
}

// ConvertQuoteRequest is the input for converting a quote into a sale.
type ConvertQuoteRequest struct {
	QuoteID int            `json:"-"`
	UserID  int            `json:"-"`
	Payment PaymentRequest `json:"payment"`
}

// CreateSaleRequest is the input for a direct (non-quote) sale.
type CreateSaleRequest struct {
	CustomerID int             `json:"customer_id"`
	UserID     int             `json:"-"`
	Discount   decimal.Decimal `json:"discount"`
	Payment    PaymentRequest  `json:"payment"`
	SaleDate   string          `json:"sale_date"`
	Notes      string          `json:"notes"`
	Lines      []LineInput     `json:"items"`
}

// CreatePurchaseRequest is the input for a supplier purchase.
type CreatePurchaseRequest struct {
	SupplierID   int            `json:"supplier_id"`
	UserID       int            `json:"-"`
	Payment      PaymentRequest `json:"payment"`
	PurchaseDate string         `json:"purchase_date"`
	Notes        string         `json:"notes"`
	Lines        []LineInput    `json:"items"`
}

// CreatePayableRequest is the input for a manual expense payable.
type CreatePayableRequest struct {
	SupplierID  *int            `json:"supplier_id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"due_date"`
}

// AccountQuery filters financial account listings.
type AccountQuery struct {
	Type       string `json:"type"`
	Status     string `json:"status"`
	CustomerID int    `json:"customer_id"`
	SupplierID int    `json:"supplier_id"`
	SaleID     int    `json:"sale_id"`
}

// CreateUserRequest is the input for registering a back-office user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// QuoteAssistRequest is a natural-language request for the quote assistant.
type QuoteAssistRequest struct {
	CustomerID int    `json:"customer_id"`
	Text       string `json:"text"`
}

// PixChargeRequest asks the payment gateway for a pix charge covering one
// open receivable installment.
type PixChargeRequest struct {
	AccountID int `json:"account_id"`
}
