package core_test

import (
	"errors"
	"testing"
	"time"

	"optic-backoffice/internal/core"
)

func TestFinancial_MarkPaidTwiceRefused(t *testing.T) {
	f := setupTestDB(t)
	fin := core.NewFinancialService(f.pool)

	acc, err := fin.CreatePayable(f.ctx, &f.supplierID, "Store rent", d("1200.00"), "2026-09-10")
	if err != nil {
		t.Fatalf("CreatePayable failed: %v", err)
	}

	paid, err := fin.MarkPaid(f.ctx, acc.ID, "2026-09-05")
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if paid.Status != core.AccountStatusPaid {
		t.Errorf("expected paid status, got %s", paid.Status)
	}
	if paid.PaidDate == nil || *paid.PaidDate != "2026-09-05" {
		t.Errorf("unexpected paid date: %v", paid.PaidDate)
	}

	if _, err := fin.MarkPaid(f.ctx, acc.ID, ""); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestFinancial_MarkOverdueSweep(t *testing.T) {
	f := setupTestDB(t)
	fin := core.NewFinancialService(f.pool)

	past, err := fin.CreatePayable(f.ctx, nil, "Old electricity bill", d("90.00"), "2026-01-10")
	if err != nil {
		t.Fatalf("CreatePayable failed: %v", err)
	}
	future, err := fin.CreatePayable(f.ctx, nil, "Next insurance premium", d("200.00"), "2030-01-10")
	if err != nil {
		t.Fatalf("CreatePayable failed: %v", err)
	}

	n, err := fin.MarkOverdue(f.ctx, time.Now())
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 overdue account, got %d", n)
	}

	got, err := fin.GetAccount(f.ctx, past.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.Status != core.AccountStatusOverdue {
		t.Errorf("expected overdue, got %s", got.Status)
	}

	got, err = fin.GetAccount(f.ctx, future.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.Status != core.AccountStatusPending {
		t.Errorf("expected future account pending, got %s", got.Status)
	}

	// Overdue accounts can still be settled.
	if _, err := fin.MarkPaid(f.ctx, past.ID, ""); err != nil {
		t.Errorf("MarkPaid on overdue account failed: %v", err)
	}
}

func TestFinancial_CreatePayableValidation(t *testing.T) {
	f := setupTestDB(t)
	fin := core.NewFinancialService(f.pool)

	if _, err := fin.CreatePayable(f.ctx, nil, "", d("10.00"), "2026-09-10"); err == nil {
		t.Error("expected error for empty description")
	}
	if _, err := fin.CreatePayable(f.ctx, nil, "Zero", d("0.00"), "2026-09-10"); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := fin.CreatePayable(f.ctx, nil, "Bad date", d("10.00"), "10/09/2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestFinancial_FilterByTypeAndStatus(t *testing.T) {
	f := setupTestDB(t)
	fin := core.NewFinancialService(f.pool)
	sales := core.NewSaleService(f.pool)

	if _, err := fin.CreatePayable(f.ctx, &f.supplierID, "Rent", d("500.00"), "2026-10-01"); err != nil {
		t.Fatalf("CreatePayable failed: %v", err)
	}
	if _, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCrediario, Installments: 2},
		Lines:      []core.SaleLineInput{{ProductID: f.frameID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	receivables, err := fin.GetAccounts(f.ctx, core.AccountFilter{Type: core.AccountReceivable})
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if len(receivables) != 2 {
		t.Errorf("expected 2 receivables, got %d", len(receivables))
	}

	payables, err := fin.GetAccounts(f.ctx, core.AccountFilter{Type: core.AccountPayable})
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if len(payables) != 1 {
		t.Errorf("expected 1 payable, got %d", len(payables))
	}
}
