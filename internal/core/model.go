package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is the closed set of payment instruments. Input aliases
// ("installment", "card", "cash") are folded into the canonical tags by
// ParsePaymentMethod; nothing downstream ever sees a free-form string.
type PaymentMethod string

const (
	// PaymentCrediario is store-extended installment credit.
	PaymentCrediario PaymentMethod = "crediario"
	PaymentCard      PaymentMethod = "cartao"
	PaymentCash      PaymentMethod = "dinheiro"
	PaymentPix       PaymentMethod = "pix"
	// PaymentPending marks a sale whose payment instrument is not yet
	// determined (e.g. a quote converted without payment info). It never
	// generates receivables.
	PaymentPending PaymentMethod = "pending"
)

// ParsePaymentMethod validates and canonicalizes a payment method tag.
// An empty string parses to PaymentPending.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crediario", "installment":
		return PaymentCrediario, nil
	case "cartao", "card":
		return PaymentCard, nil
	case "dinheiro", "cash":
		return PaymentCash, nil
	case "pix":
		return PaymentPix, nil
	case "pending", "":
		return PaymentPending, nil
	default:
		return "", fmt.Errorf("unknown payment method %q: %w", s, ErrInvalidInput)
	}
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return PaymentStatusPending, nil
	case "paid":
		return PaymentStatusPaid, nil
	case "partial":
		return PaymentStatusPartial, nil
	default:
		return "", fmt.Errorf("unknown payment status %q: %w", s, ErrInvalidInput)
	}
}

type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusApproved  QuoteStatus = "approved"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusConverted QuoteStatus = "converted"
	QuoteStatusExpired   QuoteStatus = "expired"
)

type SaleStatus string

const (
	SaleStatusActive    SaleStatus = "active"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusReturned  SaleStatus = "returned"
)

// AccountType discriminates rows in the shared financial_accounts table.
type AccountType string

const (
	AccountReceivable AccountType = "receivable"
	AccountPayable    AccountType = "payable"
)

type AccountStatus string

const (
	AccountStatusPending AccountStatus = "pending"
	AccountStatusPaid    AccountStatus = "paid"
	AccountStatusOverdue AccountStatus = "overdue"
)

type PurchaseStatus string

const (
	PurchaseStatusActive    PurchaseStatus = "active"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// PaymentInfo carries the payment instructions for a sale. The zero value
// means "payment not yet determined": method pending, status pending,
// a single installment.
type PaymentInfo struct {
	Method       PaymentMethod
	Status       PaymentStatus
	Installments int
}

// Normalize fills the zero-value defaults.
func (p *PaymentInfo) Normalize() {
	if p.Method == "" {
		p.Method = PaymentPending
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	if p.Installments < 1 {
		p.Installments = 1
	}
}

type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Document  string    `json:"document"`
	Address   string    `json:"address"`
	BirthDate *string   `json:"birth_date,omitempty"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID            int             `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStock      int             `json:"min_stock"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Prescription holds one optical prescription for a customer.
// Dioptric values are quarter-step decimals, stored as numeric.
type Prescription struct {
	ID          int              `json:"id"`
	CustomerID  int              `json:"customer_id"`
	UserID      int              `json:"user_id"`
	IssueDate   string           `json:"issue_date"`
	RightSphere decimal.Decimal  `json:"right_sphere"`
	RightCyl    decimal.Decimal  `json:"right_cylinder"`
	RightAxis   int              `json:"right_axis"`
	LeftSphere  decimal.Decimal  `json:"left_sphere"`
	LeftCyl     decimal.Decimal  `json:"left_cylinder"`
	LeftAxis    int              `json:"left_axis"`
	Addition    *decimal.Decimal `json:"addition,omitempty"`
	PupilDist   *decimal.Decimal `json:"pupillary_distance,omitempty"`
	Notes       string           `json:"notes"`
	CreatedAt   time.Time        `json:"created_at"`
}

type Quote struct {
	ID             int             `json:"id"`
	Number         string          `json:"number"`
	CustomerID     int             `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	UserID         int             `json:"user_id"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Status         QuoteStatus     `json:"status"`
	ValidUntil     string          `json:"valid_until"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []QuoteItem     `json:"items"`
}

type QuoteItem struct {
	ID          int             `json:"id"`
	QuoteID     int             `json:"quote_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type Sale struct {
	ID             int             `json:"id"`
	Number         string          `json:"number"`
	CustomerID     int             `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	UserID         int             `json:"user_id"`
	QuoteID        *int            `json:"quote_id,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Installments   int             `json:"installments"`
	Status         SaleStatus      `json:"status"`
	SaleDate       string          `json:"sale_date"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []SaleItem      `json:"items"`
}

type SaleItem struct {
	ID          int             `json:"id"`
	SaleID      int             `json:"sale_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// FinancialAccount is one amount owed (receivable) or due (payable),
// with a due date. Sale- and purchase-derived rows are created only by
// the installment scheduler, never directly from user input.
type FinancialAccount struct {
	ID            int             `json:"id"`
	Type          AccountType     `json:"type"`
	CustomerID    *int            `json:"customer_id,omitempty"`
	SupplierID    *int            `json:"supplier_id,omitempty"`
	SaleID        *int            `json:"sale_id,omitempty"`
	PurchaseID    *int            `json:"purchase_id,omitempty"`
	InstallmentNo int             `json:"installment_no"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"due_date"`
	PaidDate      *string         `json:"paid_date,omitempty"`
	Status        AccountStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Supplier struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Document  string    `json:"document"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

type Purchase struct {
	ID            int             `json:"id"`
	Number        string          `json:"number"`
	SupplierID    int             `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	UserID        int             `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Installments  int             `json:"installments"`
	Status        PurchaseStatus  `json:"status"`
	PurchaseDate  string          `json:"purchase_date"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []PurchaseItem  `json:"items"`
}

type PurchaseItem struct {
	ID          int             `json:"id"`
	PurchaseID  int             `json:"purchase_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// User is an authenticated back-office user.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
