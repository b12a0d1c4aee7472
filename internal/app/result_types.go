package app

import (
	"optic-backoffice/internal/ai"
	"optic-backoffice/internal/core"
	"optic-backoffice/internal/payments"
)

// QuoteResult is returned by quote lifecycle operations.
type QuoteResult struct {
	Quote *core.Quote
}

// QuoteListResult is returned by ListQuotes.
type QuoteListResult struct {
	Quotes []core.Quote
}

// SaleResult is returned by sale operations, including quote conversion.
type SaleResult struct {
	Sale *core.Sale
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.Sale
}

// AccountResult is returned by single-account financial operations.
type AccountResult struct {
	Account *core.FinancialAccount
}

// AccountListResult is returned by ListAccounts.
type AccountListResult struct {
	Accounts []core.FinancialAccount
}

// PurchaseResult is returned by purchase operations.
type PurchaseResult struct {
	Purchase *core.Purchase
}

// PurchaseListResult is returned by ListPurchases.
type PurchaseListResult struct {
	Purchases []core.Purchase
}

// UserSession identifies an authenticated user for token issuance.
type UserSession struct {
	UserID   int
	Username string
	Role     string
}

// QuoteSuggestionResult is returned by SuggestQuote.
type QuoteSuggestionResult struct {
	Suggestion *ai.QuoteSuggestion
}

// PixChargeResult is returned by CreatePixCharge.
type PixChargeResult struct {
	Account *core.FinancialAccount
	Charge  *payments.PixCharge
}
