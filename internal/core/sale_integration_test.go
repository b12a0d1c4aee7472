package core_test

import (
	"errors"
	"testing"

	"optic-backoffice/internal/core"
)

func TestSale_CreateDirectWithCatalogPricing(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)

	sale, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Discount:   d("50.00"),
		Payment:    core.PaymentInfo{Method: core.PaymentCash, Status: core.PaymentStatusPaid},
		Lines: []core.SaleLineInput{
			{ProductID: f.frameID, Quantity: 2},
			{ProductID: f.lensID, Quantity: 1, UnitPrice: d("280.00")}, // explicit override
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if sale.Number != "SA-00001" {
		t.Errorf("expected number SA-00001, got %s", sale.Number)
	}
	if !sale.TotalAmount.Equal(d("580.00")) {
		t.Errorf("expected total 580.00, got %s", sale.TotalAmount)
	}
	if !sale.FinalAmount.Equal(d("530.00")) {
		t.Errorf("expected final 530.00, got %s", sale.FinalAmount)
	}
	if sale.QuoteID != nil {
		t.Errorf("direct sale should not reference a quote")
	}

	if got := f.stockOf(t, f.frameID); got != 8 {
		t.Errorf("expected frame stock 8, got %d", got)
	}

	// Cash settles immediately; no receivables derived.
	if n := f.countRows(t, "SELECT count(*) FROM financial_accounts"); n != 0 {
		t.Errorf("expected no receivables for a cash sale, got %d", n)
	}
}

func TestSale_InsufficientStockAborts(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)

	_, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCash},
		Lines:      []core.SaleLineInput{{ProductID: f.lensID, Quantity: 6}}, // only 5 in stock
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if n := f.countRows(t, "SELECT count(*) FROM sales"); n != 0 {
		t.Errorf("expected no sales, got %d", n)
	}
	if got := f.stockOf(t, f.lensID); got != 5 {
		t.Errorf("lens stock changed to %d", got)
	}
}

func TestSale_InactiveProductRejected(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)
	products := core.NewProductService(f.pool)

	if err := products.DeactivateProduct(f.ctx, f.frameID); err != nil {
		t.Fatalf("DeactivateProduct failed: %v", err)
	}

	_, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCash},
		Lines:      []core.SaleLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive product, got %v", err)
	}
}

func TestSale_CancelRestoresStockAndRemovesReceivables(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)

	sale, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 2},
		Lines:      []core.SaleLineInput{{ProductID: f.frameID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if got := f.stockOf(t, f.frameID); got != 7 {
		t.Fatalf("expected stock 7 after sale, got %d", got)
	}

	cancelled, err := sales.CancelSale(f.ctx, sale.ID, f.userID)
	if err != nil {
		t.Fatalf("CancelSale failed: %v", err)
	}
	if cancelled.Status != core.SaleStatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
	if got := f.stockOf(t, f.frameID); got != 10 {
		t.Errorf("expected stock restored to 10, got %d", got)
	}
	if n := f.countRows(t, "SELECT count(*) FROM financial_accounts WHERE sale_id = $1", sale.ID); n != 0 {
		t.Errorf("expected receivables removed, got %d", n)
	}

	// Cancelling twice is a transition error.
	if _, err := sales.CancelSale(f.ctx, sale.ID, f.userID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSale_CancelRefusedAfterInstallmentPaid(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)
	fin := core.NewFinancialService(f.pool)

	sale, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 2},
		Lines:      []core.SaleLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	accounts, err := fin.GetAccounts(f.ctx, core.AccountFilter{SaleID: sale.ID})
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 receivables, got %d", len(accounts))
	}
	if _, err := fin.MarkPaid(f.ctx, accounts[0].ID, ""); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	_, err = sales.CancelSale(f.ctx, sale.ID, f.userID)
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// The sale and its remaining schedule are untouched.
	got, err := sales.GetSale(f.ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale failed: %v", err)
	}
	if got.Status != core.SaleStatusActive {
		t.Errorf("expected sale still active, got %s", got.Status)
	}
	if n := f.countRows(t, "SELECT count(*) FROM financial_accounts WHERE sale_id = $1", sale.ID); n != 2 {
		t.Errorf("expected 2 receivables kept, got %d", n)
	}
}

func TestSale_GaplessNumbering(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)

	for i, want := range []string{"SA-00001", "SA-00002", "SA-00003"} {
		sale, err := sales.CreateSale(f.ctx, core.SaleInput{
			CustomerID: f.customerID,
			UserID:     f.userID,
			Payment:    core.PaymentInfo{Method: core.PaymentCash},
			Lines:      []core.SaleLineInput{{ProductID: f.frameID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("sale %d failed: %v", i+1, err)
		}
		if sale.Number != want {
			t.Errorf("sale %d: expected %s, got %s", i+1, want, sale.Number)
		}
	}
}
