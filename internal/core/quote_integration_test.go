package core_test

import (
	"errors"
	"testing"
	"time"

	"optic-backoffice/internal/core"
)

func newQuoteServices(f fixture) (core.QuoteService, core.SaleService) {
	sales := core.NewSaleService(f.pool)
	return core.NewQuoteService(f.pool, sales), sales
}

func TestQuote_CreateComputesTotals(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines: []core.QuoteLineInput{
			{ProductID: f.frameID, Quantity: 2}, // catalog price 150.00
			{ProductID: f.lensID, Quantity: 1},  // catalog price 300.00
		},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	if q.Number != "QT-00001" {
		t.Errorf("expected number QT-00001, got %s", q.Number)
	}
	if q.Status != core.QuoteStatusPending {
		t.Errorf("expected pending status, got %s", q.Status)
	}
	if !q.TotalAmount.Equal(d("600.00")) || !q.FinalAmount.Equal(d("600.00")) {
		t.Errorf("expected total/final 600.00, got %s/%s", q.TotalAmount, q.FinalAmount)
	}
	if len(q.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(q.Items))
	}
	if !q.Items[0].TotalPrice.Equal(d("300.00")) {
		t.Errorf("expected first line total 300.00, got %s", q.Items[0].TotalPrice)
	}

	// Quoting must not move stock.
	if got := f.stockOf(t, f.frameID); got != 10 {
		t.Errorf("stock changed on quote creation: %d", got)
	}
}

func TestQuote_DiscountExceedingTotalRejected(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	_, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Discount:   d("1000.00"),
		Lines:      []core.QuoteLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected error for discount above total")
	}
}

func TestQuote_ConvertToSale(t *testing.T) {
	f := setupTestDB(t)
	quotes, sales := newQuoteServices(f)

	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines: []core.QuoteLineInput{
			{ProductID: f.frameID, Quantity: 2},
			{ProductID: f.lensID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	sale, err := quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{
		Method:       core.PaymentCrediario,
		Installments: 3,
	})
	if err != nil {
		t.Fatalf("ConvertToSale failed: %v", err)
	}

	if sale.QuoteID == nil || *sale.QuoteID != q.ID {
		t.Errorf("sale does not reference quote %d", q.ID)
	}
	if !sale.FinalAmount.Equal(q.FinalAmount) {
		t.Errorf("sale amount %s differs from quote amount %s", sale.FinalAmount, q.FinalAmount)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("expected 2 sale items, got %d", len(sale.Items))
	}

	// Quote is frozen as converted, items still attached to it.
	got, err := quotes.GetQuote(f.ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if got.Status != core.QuoteStatusConverted {
		t.Errorf("expected converted status, got %s", got.Status)
	}
	if len(got.Items) != 2 {
		t.Errorf("quote items were moved, got %d", len(got.Items))
	}

	// Stock moved exactly once, at conversion.
	if got := f.stockOf(t, f.frameID); got != 8 {
		t.Errorf("expected frame stock 8, got %d", got)
	}
	if got := f.stockOf(t, f.lensID); got != 4 {
		t.Errorf("expected lens stock 4, got %d", got)
	}

	// 600.00 over 3 installments of 200.00 each.
	fin := core.NewFinancialService(f.pool)
	accounts, err := fin.GetAccounts(f.ctx, core.AccountFilter{SaleID: sale.ID})
	if err != nil {
		t.Fatalf("GetAccounts failed: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 receivables, got %d", len(accounts))
	}
	for i, a := range accounts {
		if !a.Amount.Equal(d("200.00")) {
			t.Errorf("receivable %d: expected 200.00, got %s", i+1, a.Amount)
		}
		if a.Status != core.AccountStatusPending {
			t.Errorf("receivable %d: expected pending, got %s", i+1, a.Status)
		}
		if a.CustomerID == nil || *a.CustomerID != f.customerID {
			t.Errorf("receivable %d: wrong customer", i+1)
		}
	}

	// The sale is also reachable through the sale service.
	if _, err := sales.GetSale(f.ctx, sale.ID); err != nil {
		t.Errorf("GetSale failed: %v", err)
	}
}

func TestQuote_ConvertTwiceRejected(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines:      []core.QuoteLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	if _, err := quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{Method: core.PaymentCash}); err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}

	_, err = quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{Method: core.PaymentCash})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if n := f.countRows(t, "SELECT count(*) FROM sales"); n != 1 {
		t.Errorf("expected exactly 1 sale, got %d", n)
	}
	if got := f.stockOf(t, f.frameID); got != 9 {
		t.Errorf("expected stock decremented once, got %d", got)
	}
}

func TestQuote_ConvertRejectedQuoteRefused(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines:      []core.QuoteLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if _, err := quotes.UpdateQuoteStatus(f.ctx, q.ID, core.QuoteStatusRejected); err != nil {
		t.Fatalf("UpdateQuoteStatus failed: %v", err)
	}

	_, err = quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{Method: core.PaymentCash})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestQuote_ConvertApprovedQuoteAllowed(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines:      []core.QuoteLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if _, err := quotes.UpdateQuoteStatus(f.ctx, q.ID, core.QuoteStatusApproved); err != nil {
		t.Fatalf("UpdateQuoteStatus failed: %v", err)
	}
	if _, err := quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{Method: core.PaymentPix}); err != nil {
		t.Fatalf("conversion of approved quote failed: %v", err)
	}
}

func TestQuote_ConvertInsufficientStockRollsBackEverything(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	// 20 frames quoted, 10 in stock. Quoting is allowed; conversion is not.
	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines: []core.QuoteLineInput{
			{ProductID: f.lensID, Quantity: 1},
			{ProductID: f.frameID, Quantity: 20},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	_, err = quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{
		Method:       core.PaymentCrediario,
		Installments: 2,
	})
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Nothing survives the rollback: no sale, no items, no receivables,
	// no stock movement, quote still pending.
	if n := f.countRows(t, "SELECT count(*) FROM sales"); n != 0 {
		t.Errorf("expected no sales, got %d", n)
	}
	if n := f.countRows(t, "SELECT count(*) FROM sale_items"); n != 0 {
		t.Errorf("expected no sale items, got %d", n)
	}
	if n := f.countRows(t, "SELECT count(*) FROM financial_accounts"); n != 0 {
		t.Errorf("expected no receivables, got %d", n)
	}
	if got := f.stockOf(t, f.lensID); got != 5 {
		t.Errorf("lens stock changed to %d", got)
	}
	if got := f.stockOf(t, f.frameID); got != 10 {
		t.Errorf("frame stock changed to %d", got)
	}

	got, err := quotes.GetQuote(f.ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if got.Status != core.QuoteStatusPending {
		t.Errorf("expected quote still pending, got %s", got.Status)
	}
}

func TestQuote_DeleteConvertedRefused(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		Lines:      []core.QuoteLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if _, err := quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{Method: core.PaymentCash}); err != nil {
		t.Fatalf("conversion failed: %v", err)
	}

	if err := quotes.DeleteQuote(f.ctx, q.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestQuote_Expire(t *testing.T) {
	f := setupTestDB(t)
	quotes, _ := newQuoteServices(f)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	q, err := quotes.CreateQuote(f.ctx, core.QuoteInput{
		CustomerID: f.customerID,
		UserID:     f.userID,
		ValidUntil: yesterday,
		Lines:      []core.QuoteLineInput{{ProductID: f.frameID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	n, err := quotes.ExpireQuotes(f.ctx, time.Now())
	if err != nil {
		t.Fatalf("ExpireQuotes failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired quote, got %d", n)
	}

	got, err := quotes.GetQuote(f.ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if got.Status != core.QuoteStatusExpired {
		t.Errorf("expected expired status, got %s", got.Status)
	}

	// Expired quotes cannot be converted.
	_, err = quotes.ConvertToSale(f.ctx, q.ID, f.userID, core.PaymentInfo{Method: core.PaymentCash})
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
