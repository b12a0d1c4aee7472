package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SaleLineInput is one requested product line. A zero UnitPrice means
// "use the catalog sale price".
type SaleLineInput struct {
	ProductID int
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleInput is the request for a direct (non-quote) sale.
type SaleInput struct {
	CustomerID int
	UserID     int
	Discount   decimal.Decimal
	Payment    PaymentInfo
	SaleDate   string
	Notes      string
	Lines      []SaleLineInput
}

// SaleFilter narrows sale queries. Zero values mean "any".
type SaleFilter struct {
	CustomerID int
	Status     SaleStatus
}

// SaleService creates and manages sales. Creation is a single atomic
// transaction covering the sale header, its items, the guarded stock
// decrements, and the derived receivable schedule; the same routine
// serves direct sales and quote conversion, so receivables are derived
// uniformly regardless of how the sale originated.
type SaleService interface {
	CreateSale(ctx context.Context, in SaleInput) (*Sale, error)
	GetSale(ctx context.Context, id int) (*Sale, error)
	GetSales(ctx context.Context, f SaleFilter) ([]Sale, error)
	// CancelSale reverses an active sale: stock is restored and unpaid
	// receivables are removed. Refused once any installment was paid.
	CancelSale(ctx context.Context, saleID, userID int) (*Sale, error)
}

type saleService struct {
	pool *pgxpool.Pool
}

func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

// resolvedSale is a fully-priced sale ready for persistence. Direct sales
// compute it from the catalog; quote conversion copies the quote's amounts
// and line prices verbatim.
type resolvedSale struct {
	customerID     int
	userID         int
	quoteID        *int
	totalAmount    decimal.Decimal
	discountAmount decimal.Decimal
	finalAmount    decimal.Decimal
	payment        PaymentInfo
	saleDate       string
	notes          string
	lines          []resolvedSaleLine
}

type resolvedSaleLine struct {
	productID  int
	quantity   int
	unitPrice  decimal.Decimal
	totalPrice decimal.Decimal
}

func (s *saleService) CreateSale(ctx context.Context, in SaleInput) (*Sale, error) {
	in.Payment.Normalize()
	if in.UserID == 0 {
		return nil, fmt.Errorf("sale requires the acting user: %w", ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("sale must have at least one item: %w", ErrInvalidInput)
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("discount cannot be negative: %w", ErrInvalidInput)
	}
	if in.SaleDate == "" {
		in.SaleDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", in.SaleDate); err != nil {
		return nil, fmt.Errorf("invalid sale date %q: %w", in.SaleDate, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Price the lines from the catalog, honoring explicit overrides.
	var total decimal.Decimal
	lines := make([]resolvedSaleLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("line %d: quantity must be positive, got %d: %w", i+1, l.Quantity, ErrInvalidInput)
		}
		var catalogPrice decimal.Decimal
		err := tx.QueryRow(ctx,
			"SELECT sale_price FROM products WHERE id = $1 AND is_active = true", l.ProductID,
		).Scan(&catalogPrice)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("line %d: product %d: %w", i+1, l.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("line %d: failed to resolve product %d: %w", i+1, l.ProductID, err)
		}

		price := l.UnitPrice
		if price.IsZero() {
			price = catalogPrice
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, resolvedSaleLine{
			productID:  l.ProductID,
			quantity:   l.Quantity,
			unitPrice:  price,
			totalPrice: lineTotal,
		})
	}

	final := total.Sub(in.Discount)
	if final.IsNegative() {
		return nil, fmt.Errorf("discount %s exceeds sale total %s: %w", in.Discount, total, ErrInvalidInput)
	}

	saleID, err := createSaleTx(ctx, tx, resolvedSale{
		customerID:     in.CustomerID,
		userID:         in.UserID,
		totalAmount:    total,
		discountAmount: in.Discount,
		finalAmount:    final,
		payment:        in.Payment,
		saleDate:       in.SaleDate,
		notes:          in.Notes,
		lines:          lines,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale creation: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

// createSaleTx persists a resolved sale inside the caller's transaction:
// number allocation, header, items, guarded stock decrements, and the
// receivable schedule. Any failure aborts the whole transaction, so no
// partial sale, stock change, or receivable can survive.
func createSaleTx(ctx context.Context, tx pgx.Tx, rs resolvedSale) (int, error) {
	number, err := nextNumberTx(ctx, tx, seqSale)
	if err != nil {
		return 0, err
	}

	var saleID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (number, customer_id, user_id, quote_id, total_amount, discount_amount, final_amount,
		                   payment_method, payment_status, installments, status, sale_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, number, rs.customerID, rs.userID, rs.quoteID, rs.totalAmount, rs.discountAmount, rs.finalAmount,
		rs.payment.Method, rs.payment.Status, rs.payment.Installments, SaleStatusActive, rs.saleDate, rs.notes,
	).Scan(&saleID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sale: %w", err)
	}

	for i, l := range rs.lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, l.productID, l.quantity, l.unitPrice, l.totalPrice)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sale item %d: %w", i+1, err)
		}
		if err := decrementStockTx(ctx, tx, l.productID, l.quantity); err != nil {
			return 0, err
		}
	}

	// Installments are anchored to the sale date, not the entry time.
	from, err := time.Parse("2006-01-02", rs.saleDate)
	if err != nil {
		return 0, fmt.Errorf("invalid sale date %q: %w", rs.saleDate, ErrInvalidInput)
	}
	plan, err := InstallmentPlan(rs.finalAmount, rs.payment.Method, rs.payment.Installments, number, from)
	if err != nil {
		return 0, fmt.Errorf("failed to derive receivable schedule for sale %s: %w", number, err)
	}
	if err := scheduleReceivablesTx(ctx, tx, rs.customerID, saleID, plan); err != nil {
		return 0, err
	}

	return saleID, nil
}

const saleColumns = `s.id, s.number, s.customer_id, c.name, s.user_id, s.quote_id,
	s.total_amount, s.discount_amount, s.final_amount,
	s.payment_method, s.payment_status, s.installments, s.status,
	s.sale_date::text, s.notes, s.created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var sl Sale
	err := row.Scan(&sl.ID, &sl.Number, &sl.CustomerID, &sl.CustomerName, &sl.UserID, &sl.QuoteID,
		&sl.TotalAmount, &sl.DiscountAmount, &sl.FinalAmount,
		&sl.PaymentMethod, &sl.PaymentStatus, &sl.Installments, &sl.Status,
		&sl.SaleDate, &sl.Notes, &sl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sl, nil
}

func (s *saleService) GetSale(ctx context.Context, id int) (*Sale, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, id)
	sl, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sale %d: %w", id, err)
	}

	items, err := fetchSaleItems(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	sl.Items = items
	return sl, nil
}

func (s *saleService) GetSales(ctx context.Context, f SaleFilter) ([]Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE 1=1`
	var args []any
	if f.CustomerID != 0 {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(" AND s.customer_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	query += " ORDER BY s.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sl, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *sl)
	}
	return sales, rows.Err()
}

type saleItemQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchSaleItems(ctx context.Context, q saleItemQuerier, saleID int) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.unit_price, si.total_price
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *saleService) CancelSale(ctx context.Context, saleID, userID int) (*Sale, error) {
	if userID == 0 {
		return nil, fmt.Errorf("cancellation requires the acting user: %w", ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status SaleStatus
	err = tx.QueryRow(ctx, "SELECT status FROM sales WHERE id = $1 FOR UPDATE", saleID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale %d: %w", saleID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock sale %d: %w", saleID, err)
	}
	if status != SaleStatusActive {
		return nil, fmt.Errorf("sale %d cannot be cancelled: status is %s: %w", saleID, status, ErrInvalidTransition)
	}

	// A sale with settled installments represents collected money; reversing
	// it would require a refund flow this system does not have. Only unpaid
	// rows are deleted; any row still present afterwards was settled, possibly
	// by a concurrent payment, and aborts the cancellation.
	if _, err = tx.Exec(ctx,
		"DELETE FROM financial_accounts WHERE sale_id = $1 AND status <> $2",
		saleID, AccountStatusPaid,
	); err != nil {
		return nil, fmt.Errorf("failed to remove receivables for sale %d: %w", saleID, err)
	}
	var paidCount int
	err = tx.QueryRow(ctx,
		"SELECT count(*) FROM financial_accounts WHERE sale_id = $1", saleID,
	).Scan(&paidCount)
	if err != nil {
		return nil, fmt.Errorf("failed to check receivables for sale %d: %w", saleID, err)
	}
	if paidCount > 0 {
		return nil, fmt.Errorf("sale %d has %d paid installments: %w", saleID, paidCount, ErrInvalidTransition)
	}

	items, err := fetchSaleItems(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if err := incrementStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}

	if _, err = tx.Exec(ctx, "UPDATE sales SET status = $1 WHERE id = $2", SaleStatusCancelled, saleID); err != nil {
		return nil, fmt.Errorf("failed to cancel sale %d: %w", saleID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return s.GetSale(ctx, saleID)
}
