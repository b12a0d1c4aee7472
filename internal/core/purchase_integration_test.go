package core_test

import (
	"errors"
	"testing"

	"optic-backoffice/internal/core"
)

func TestPurchase_CreateIncrementsStockAndSchedulesPayables(t *testing.T) {
	f := setupTestDB(t)
	purchases := core.NewPurchaseService(f.pool)

	p, err := purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: f.supplierID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 2},
		Lines: []core.PurchaseLineInput{
			{ProductID: f.frameID, Quantity: 10, UnitCost: d("55.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	if p.Number != "PO-00001" {
		t.Errorf("expected number PO-00001, got %s", p.Number)
	}
	if !p.TotalAmount.Equal(d("550.00")) {
		t.Errorf("expected total 550.00, got %s", p.TotalAmount)
	}
	if got := f.stockOf(t, f.frameID); got != 20 {
		t.Errorf("expected stock 20 after receipt, got %d", got)
	}

	// Latest receipt sets the replacement cost.
	products := core.NewProductService(f.pool)
	frame, err := products.GetProduct(f.ctx, f.frameID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if !frame.CostPrice.Equal(d("55.00")) {
		t.Errorf("expected cost price 55.00, got %s", frame.CostPrice)
	}

	fin := core.NewFinancialService(f.pool)
	payables, err := fin.GetAccounts(f.ctx, core.AccountFilter{Type: core.AccountPayable, SupplierID: f.supplierID})
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if len(payables) != 2 {
		t.Fatalf("expected 2 payables, got %d", len(payables))
	}
	for i, a := range payables {
		if !a.Amount.Equal(d("275.00")) {
			t.Errorf("payable %d: expected 275.00, got %s", i+1, a.Amount)
		}
	}
}

func TestPurchase_CancelReversesStock(t *testing.T) {
	f := setupTestDB(t)
	purchases := core.NewPurchaseService(f.pool)

	p, err := purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: f.supplierID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 1},
		Lines:      []core.PurchaseLineInput{{ProductID: f.lensID, Quantity: 4, UnitCost: d("100.00")}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}
	if got := f.stockOf(t, f.lensID); got != 9 {
		t.Fatalf("expected stock 9, got %d", got)
	}

	cancelled, err := purchases.CancelPurchase(f.ctx, p.ID, f.userID)
	if err != nil {
		t.Fatalf("CancelPurchase failed: %v", err)
	}
	if cancelled.Status != core.PurchaseStatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
	if got := f.stockOf(t, f.lensID); got != 5 {
		t.Errorf("expected stock back to 5, got %d", got)
	}
	if n := f.countRows(t, "SELECT count(*) FROM financial_accounts WHERE purchase_id = $1", p.ID); n != 0 {
		t.Errorf("expected payables removed, got %d", n)
	}
}

func TestPurchase_CancelRefusedWhenStockSoldOn(t *testing.T) {
	f := setupTestDB(t)
	purchases := core.NewPurchaseService(f.pool)
	sales := core.NewSaleService(f.pool)

	p, err := purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: f.supplierID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 1},
		Lines:      []core.PurchaseLineInput{{ProductID: f.lensID, Quantity: 3, UnitCost: d("100.00")}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	// Sell 6 of the 8 on hand; the reversal of 3 would go negative.
	if _, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCash},
		Lines:      []core.SaleLineInput{{ProductID: f.lensID, Quantity: 6}},
	}); err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	_, err = purchases.CancelPurchase(f.ctx, p.ID, f.userID)
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, err := purchases.GetPurchase(f.ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPurchase failed: %v", err)
	}
	if got.Status != core.PurchaseStatusActive {
		t.Errorf("expected purchase still active, got %s", got.Status)
	}
}

func TestPurchase_CancelRefusedAfterPayablePaid(t *testing.T) {
	f := setupTestDB(t)
	purchases := core.NewPurchaseService(f.pool)
	fin := core.NewFinancialService(f.pool)

	p, err := purchases.CreatePurchase(f.ctx, core.PurchaseInput{
		SupplierID: f.supplierID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 1},
		Lines:      []core.PurchaseLineInput{{ProductID: f.frameID, Quantity: 2, UnitCost: d("50.00")}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	payables, err := fin.GetAccounts(f.ctx, core.AccountFilter{Type: core.AccountPayable})
	if err != nil || len(payables) != 1 {
		t.Fatalf("expected 1 payable, got %d (err %v)", len(payables), err)
	}
	if _, err := fin.MarkPaid(f.ctx, payables[0].ID, ""); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	if _, err := purchases.CancelPurchase(f.ctx, p.ID, f.userID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
