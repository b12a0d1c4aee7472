package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"optic-backoffice/internal/core"
)

func TestReporting_SalesSummary(t *testing.T) {
	f := setupTestDB(t)
	sales := core.NewSaleService(f.pool)
	reports := core.NewReportingService(f.pool)

	today := time.Now().Format("2006-01-02")

	if _, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Discount:   d("10.00"),
		Payment:    core.PaymentInfo{Method: core.PaymentCash},
		Lines:      []core.SaleLineInput{{ProductID: f.frameID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	cancelled, err := sales.CreateSale(f.ctx, core.SaleInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Payment:    core.PaymentInfo{Method: core.PaymentCash},
		Lines:      []core.SaleLineInput{{ProductID: f.lensID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if _, err := sales.CancelSale(f.ctx, cancelled.ID, f.userID); err != nil {
		t.Fatalf("CancelSale failed: %v", err)
	}

	sum, err := reports.SalesSummary(f.ctx, today, today)
	if err != nil {
		t.Fatalf("SalesSummary failed: %v", err)
	}

	// Cancelled sales stay out of the aggregates.
	if sum.SaleCount != 1 {
		t.Errorf("expected 1 active sale, got %d", sum.SaleCount)
	}
	if !sum.GrossAmount.Equal(d("150.00")) {
		t.Errorf("expected gross 150.00, got %s", sum.GrossAmount)
	}
	if !sum.NetAmount.Equal(d("140.00")) {
		t.Errorf("expected net 140.00, got %s", sum.NetAmount)
	}
}

func TestReporting_ReceivablesAging(t *testing.T) {
	f := setupTestDB(t)
	reports := core.NewReportingService(f.pool)

	// One receivable per bucket, inserted directly with controlled due dates.
	now := time.Now()
	dues := []struct {
		daysAgo int
		amount  string
	}{
		{-30, "10.00"}, // current (due in the future)
		{15, "20.00"},  // 1-30
		{45, "30.00"},  // 31-60
		{75, "40.00"},  // 61-90
		{120, "50.00"}, // 90+
	}
	for i, due := range dues {
		_, err := f.pool.Exec(f.ctx, `
			INSERT INTO financial_accounts (type, customer_id, installment_no, description, amount, due_date, status)
			VALUES ('receivable', $1, $2, 'Aging seed', $3, $4, 'pending')
		`, f.customerID, i+1, due.amount, now.AddDate(0, 0, -due.daysAgo).Format("2006-01-02"))
		if err != nil {
			t.Fatalf("seed receivable %d: %v", i+1, err)
		}
	}

	buckets, err := reports.ReceivablesAging(f.ctx, now)
	if err != nil {
		t.Fatalf("ReceivablesAging failed: %v", err)
	}
	if len(buckets) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(buckets))
	}

	want := map[string]string{
		"current": "10.00",
		"1-30":    "20.00",
		"31-60":   "30.00",
		"61-90":   "40.00",
		"90+":     "50.00",
	}
	for _, b := range buckets {
		expected, ok := want[b.Label]
		if !ok {
			t.Errorf("unexpected bucket %q", b.Label)
			continue
		}
		if b.Count != 1 {
			t.Errorf("bucket %s: expected 1 account, got %d", b.Label, b.Count)
		}
		if !b.Amount.Equal(d(expected)) {
			t.Errorf("bucket %s: expected %s, got %s", b.Label, expected, b.Amount)
		}
	}

	var total decimal.Decimal
	for _, b := range buckets {
		total = total.Add(b.Amount)
	}
	if !total.Equal(d("150.00")) {
		t.Errorf("buckets sum to %s, want 150.00", total)
	}
}
