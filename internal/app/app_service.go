package app

import (
	"context"
	"fmt"
	"time"

	"optic-backoffice/internal/ai"
	"optic-backoffice/internal/core"
	"optic-backoffice/internal/payments"
)

type appService struct {
	customers     core.CustomerService
	products      core.ProductService
	prescriptions core.PrescriptionService
	quotes        core.QuoteService
	sales         core.SaleService
	purchases     core.PurchaseService
	financial     core.FinancialService
	users         core.UserService
	reports       core.ReportingService
	assistant     *ai.Assistant
	gateway       payments.Gateway
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	customers core.CustomerService,
	products core.ProductService,
	prescriptions core.PrescriptionService,
	quotes core.QuoteService,
	sales core.SaleService,
	purchases core.PurchaseService,
	financial core.FinancialService,
	users core.UserService,
	reports core.ReportingService,
	assistant *ai.Assistant,
	gateway payments.Gateway,
) ApplicationService {
	return &appService{
		customers:     customers,
		products:      products,
		prescriptions: prescriptions,
		quotes:        quotes,
		sales:         sales,
		purchases:     purchases,
		financial:     financial,
		users:         users,
		reports:       reports,
		assistant:     assistant,
		gateway:       gateway,
	}
}

func coreLines(lines []LineInput) []core.QuoteLineInput {
	out := make([]core.QuoteLineInput, len(lines))
	for i, l := range lines {
		out[i] = core.QuoteLineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return out
}

// parsePayment folds the wire-level payment strings into the closed enums.
func parsePayment(req PaymentRequest) (core.PaymentInfo, error) {
	method, err := core.ParsePaymentMethod(req.Method)
	if err != nil {
		return core.PaymentInfo{}, err
	}
	status, err := core.ParsePaymentStatus(req.Status)
	if err != nil {
		return core.PaymentInfo{}, err
	}
	p := core.PaymentInfo{Method: method, Status: status, Installments: req.Installments}
	p.Normalize()
	return p, nil
}

func (s *appService) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteResult, error) {
	quote, err := s.quotes.CreateQuote(ctx, core.QuoteInput{
		CustomerID: req.CustomerID,
		UserID:     req.UserID,
		Discount:   req.Discount,
		ValidUntil: req.ValidUntil,
		Notes:      req.Notes,
		Lines:      coreLines(req.Lines),
	})
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

func (s *appService) GetQuote(ctx context.Context, id int) (*QuoteResult, error) {
	quote, err := s.quotes.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

func (s *appService) ListQuotes(ctx context.Context, status string) (*QuoteListResult, error) {
	quotes, err := s.quotes.GetQuotes(ctx, core.QuoteStatus(status))
	if err != nil {
		return nil, err
	}
	return &QuoteListResult{Quotes: quotes}, nil
}

func (s *appService) ReviewQuote(ctx context.Context, id int, status string) (*QuoteResult, error) {
	quote, err := s.quotes.UpdateQuoteStatus(ctx, id, core.QuoteStatus(status))
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Quote: quote}, nil
}

func (s *appService) DeleteQuote(ctx context.Context, id int) error {
	return s.quotes.DeleteQuote(ctx, id)
}

func (s *appService) ExpireQuotes(ctx context.Context) (int, error) {
	return s.quotes.ExpireQuotes(ctx, time.Now())
}

func (s *appService) ConvertQuote(ctx context.Context, req ConvertQuoteRequest) (*SaleResult, error) {
	payment, err := parsePayment(req.Payment)
	if err != nil {
		return nil, err
	}
	sale, err := s.quotes.ConvertToSale(ctx, req.QuoteID, req.UserID, payment)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResult, error) {
	payment, err := parsePayment(req.Payment)
	if err != nil {
		return nil, err
	}
	lines := make([]core.SaleLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.SaleLineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	sale, err := s.sales.CreateSale(ctx, core.SaleInput{
		CustomerID: req.CustomerID,
		UserID:     req.UserID,
		Discount:   req.Discount,
		Payment:    payment,
		SaleDate:   req.SaleDate,
		Notes:      req.Notes,
		Lines:      lines,
	})
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) GetSale(ctx context.Context, id int) (*SaleResult, error) {
	sale, err := s.sales.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) ListSales(ctx context.Context, customerID int, status string) (*SaleListResult, error) {
	sales, err := s.sales.GetSales(ctx, core.SaleFilter{CustomerID: customerID, Status: core.SaleStatus(status)})
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) CancelSale(ctx context.Context, saleID, userID int) (*SaleResult, error) {
	sale, err := s.sales.CancelSale(ctx, saleID, userID)
	if err != nil {
		return nil, err
	}
	return &SaleResult{Sale: sale}, nil
}

func (s *appService) GetAccount(ctx context.Context, id int) (*AccountResult, error) {
	account, err := s.financial.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AccountResult{Account: account}, nil
}

func (s *appService) ListAccounts(ctx context.Context, q AccountQuery) (*AccountListResult, error) {
	accounts, err := s.financial.GetAccounts(ctx, core.AccountFilter{
		Type:       core.AccountType(q.Type),
		Status:     core.AccountStatus(q.Status),
		CustomerID: q.CustomerID,
		SupplierID: q.SupplierID,
		SaleID:     q.SaleID,
	})
	if err != nil {
		return nil, err
	}
	return &AccountListResult{Accounts: accounts}, nil
}

func (s *appService) CreatePayable(ctx context.Context, req CreatePayableRequest) (*AccountResult, error) {
	account, err := s.financial.CreatePayable(ctx, req.SupplierID, req.Description, req.Amount, req.DueDate)
	if err != nil {
		return nil, err
	}
	return &AccountResult{Account: account}, nil
}

func (s *appService) PayAccount(ctx context.Context, id int, paidDate string) (*AccountResult, error) {
	account, err := s.financial.MarkPaid(ctx, id, paidDate)
	if err != nil {
		return nil, err
	}
	return &AccountResult{Account: account}, nil
}

func (s *appService) SweepOverdue(ctx context.Context) (int, error) {
	return s.financial.MarkOverdue(ctx, time.Now())
}

func (s *appService) CreateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error) {
	return s.customers.CreateCustomer(ctx, c)
}

func (s *appService) UpdateCustomer(ctx context.Context, c core.Customer) (*core.Customer, error) {
	return s.customers.UpdateCustomer(ctx, c)
}

func (s *appService) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	return s.customers.GetCustomer(ctx, id)
}

func (s *appService) ListCustomers(ctx context.Context, search string) ([]core.Customer, error) {
	return s.customers.GetCustomers(ctx, search)
}

func (s *appService) DeleteCustomer(ctx context.Context, id int) error {
	return s.customers.DeleteCustomer(ctx, id)
}

func (s *appService) CreateProduct(ctx context.Context, p core.Product) (*core.Product, error) {
	return s.products.CreateProduct(ctx, p)
}

func (s *appService) UpdateProduct(ctx context.Context, p core.Product) (*core.Product, error) {
	return s.products.UpdateProduct(ctx, p)
}

func (s *appService) GetProduct(ctx context.Context, id int) (*core.Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *appService) ListProducts(ctx context.Context, activeOnly bool) ([]core.Product, error) {
	return s.products.GetProducts(ctx, activeOnly)
}

func (s *appService) ListLowStock(ctx context.Context) ([]core.Product, error) {
	return s.products.GetLowStock(ctx)
}

func (s *appService) AdjustStock(ctx context.Context, productID, delta int) error {
	return s.products.AdjustStock(ctx, productID, delta)
}

func (s *appService) DeactivateProduct(ctx context.Context, id int) error {
	return s.products.DeactivateProduct(ctx, id)
}

func (s *appService) CreatePrescription(ctx context.Context, p core.Prescription) (*core.Prescription, error) {
	return s.prescriptions.CreatePrescription(ctx, p)
}

func (s *appService) GetPrescription(ctx context.Context, id int) (*core.Prescription, error) {
	return s.prescriptions.GetPrescription(ctx, id)
}

func (s *appService) ListPrescriptions(ctx context.Context, customerID int) ([]core.Prescription, error) {
	return s.prescriptions.GetPrescriptions(ctx, customerID)
}

func (s *appService) DeletePrescription(ctx context.Context, id int) error {
	return s.prescriptions.DeletePrescription(ctx, id)
}

func (s *appService) CreateSupplier(ctx context.Context, sup core.Supplier) (*core.Supplier, error) {
	return s.purchases.CreateSupplier(ctx, sup)
}

func (s *appService) UpdateSupplier(ctx context.Context, sup core.Supplier) (*core.Supplier, error) {
	return s.purchases.UpdateSupplier(ctx, sup)
}

func (s *appService) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	return s.purchases.GetSuppliers(ctx)
}

func (s *appService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*PurchaseResult, error) {
	payment, err := parsePayment(req.Payment)
	if err != nil {
		return nil, err
	}
	lines := make([]core.PurchaseLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.PurchaseLineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitCost: l.UnitPrice}
	}
	purchase, err := s.purchases.CreatePurchase(ctx, core.PurchaseInput{
		SupplierID:   req.SupplierID,
		UserID:       req.UserID,
		Payment:      payment,
		PurchaseDate: req.PurchaseDate,
		Notes:        req.Notes,
		Lines:        lines,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) GetPurchase(ctx context.Context, id int) (*PurchaseResult, error) {
	purchase, err := s.purchases.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) ListPurchases(ctx context.Context, supplierID int) (*PurchaseListResult, error) {
	purchases, err := s.purchases.GetPurchases(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return &PurchaseListResult{Purchases: purchases}, nil
}

func (s *appService) CancelPurchase(ctx context.Context, purchaseID, userID int) (*PurchaseResult, error) {
	purchase, err := s.purchases.CancelPurchase(ctx, purchaseID, userID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase}, nil
}

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error) {
	return s.users.CreateUser(ctx, req.Username, req.Email, req.Password, req.Role)
}

func (s *appService) GetUser(ctx context.Context, id int) (*core.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *appService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.users.GetUsers(ctx)
}

func (s *appService) ChangePassword(ctx context.Context, id int, newPassword string) error {
	return s.users.ChangePassword(ctx, id, newPassword)
}

func (s *appService) DeactivateUser(ctx context.Context, id int) error {
	return s.users.DeactivateUser(ctx, id)
}

func (s *appService) GetSalesSummary(ctx context.Context, from, to string) (*core.SalesSummary, error) {
	return s.reports.SalesSummary(ctx, from, to)
}

func (s *appService) GetReceivablesAging(ctx context.Context, asOf time.Time) ([]core.AgingBucket, error) {
	return s.reports.ReceivablesAging(ctx, asOf)
}

func (s *appService) SuggestQuote(ctx context.Context, req QuoteAssistRequest) (*QuoteSuggestionResult, error) {
	if s.assistant == nil {
		return nil, fmt.Errorf("quote assistant is not configured")
	}
	products, err := s.products.GetProducts(ctx, true)
	if err != nil {
		return nil, err
	}
	suggestion, err := s.assistant.SuggestQuote(ctx, req.Text, products)
	if err != nil {
		return nil, err
	}
	return &QuoteSuggestionResult{Suggestion: suggestion}, nil
}

func (s *appService) CreatePixCharge(ctx context.Context, req PixChargeRequest) (*PixChargeResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("payment gateway is not configured")
	}
	account, err := s.financial.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account.Type != core.AccountReceivable {
		return nil, fmt.Errorf("pix charges apply to receivables only, account %d is %s: %w", account.ID, account.Type, core.ErrInvalidInput)
	}
	if account.Status == core.AccountStatusPaid {
		return nil, fmt.Errorf("account %d is already paid: %w", account.ID, core.ErrInvalidTransition)
	}
	charge, err := s.gateway.CreatePixCharge(ctx, payments.PixRequest{
		Reference:   fmt.Sprintf("account-%d", account.ID),
		Description: account.Description,
		Amount:      account.Amount,
	})
	if err != nil {
		return nil, err
	}
	return &PixChargeResult{Account: account, Charge: charge}, nil
}
