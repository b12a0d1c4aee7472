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

// QuoteLineInput is one requested product line for a quote. A zero
// UnitPrice means "use the catalog sale price".
type QuoteLineInput struct {
	ProductID int
	Quantity  int
	UnitPrice decimal.Decimal
}

// QuoteInput is the request for a new quote.
type QuoteInput struct {
	CustomerID int
	UserID     int
	Discount   decimal.Decimal
	ValidUntil string
	Notes      string
	Lines      []QuoteLineInput
}

// QuoteService manages the quote lifecycle up to and including its one-way
// conversion into a sale.
type QuoteService interface {
	CreateQuote(ctx context.Context, in QuoteInput) (*Quote, error)
	GetQuote(ctx context.Context, id int) (*Quote, error)
	GetQuotes(ctx context.Context, status QuoteStatus) ([]Quote, error)
	// UpdateQuoteStatus moves a pending quote to approved or rejected.
	UpdateQuoteStatus(ctx context.Context, id int, status QuoteStatus) (*Quote, error)
	// DeleteQuote removes a non-converted quote and its items.
	DeleteQuote(ctx context.Context, id int) error
	// ExpireQuotes flips pending quotes past their validity deadline to
	// expired and reports how many changed. Invoked on demand.
	ExpireQuotes(ctx context.Context, asOf time.Time) (int, error)

	// ConvertToSale creates a sale from a pending or approved quote,
	// copying its amounts and line prices verbatim, and marks the quote
	// converted. The sale, its items, the stock decrements, and the
	// receivable schedule are persisted through the shared sale-creation
	// routine, all inside one transaction with the status flip. Quote
	// items are copied, never moved.
	ConvertToSale(ctx context.Context, quoteID, userID int, payment PaymentInfo) (*Sale, error)
}

type quoteService struct {
	pool  *pgxpool.Pool
	sales SaleService
}

func NewQuoteService(pool *pgxpool.Pool, sales SaleService) QuoteService {
	return &quoteService{pool: pool, sales: sales}
}

func (s *quoteService) CreateQuote(ctx context.Context, in QuoteInput) (*Quote, error) {
	if in.UserID == 0 {
		return nil, fmt.Errorf("quote requires the acting user: %w", ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("quote must have at least one item: %w", ErrInvalidInput)
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("discount cannot be negative: %w", ErrInvalidInput)
	}
	if in.ValidUntil == "" {
		in.ValidUntil = time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", in.ValidUntil); err != nil {
		return nil, fmt.Errorf("invalid validity date %q: %w", in.ValidUntil, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	type pricedLine struct {
		productID  int
		quantity   int
		unitPrice  decimal.Decimal
		totalPrice decimal.Decimal
	}
	var total decimal.Decimal
	lines := make([]pricedLine, 0, len(in.Lines))
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
		lines = append(lines, pricedLine{
			productID:  l.ProductID,
			quantity:   l.Quantity,
			unitPrice:  price,
			totalPrice: lineTotal,
		})
	}

	// Header invariant: final = total - discount.
	final := total.Sub(in.Discount)
	if final.IsNegative() {
		return nil, fmt.Errorf("discount %s exceeds quote total %s: %w", in.Discount, total, ErrInvalidInput)
	}

	number, err := nextNumberTx(ctx, tx, seqQuote)
	if err != nil {
		return nil, err
	}

	var quoteID int
	err = tx.QueryRow(ctx, `
		INSERT INTO quotes (number, customer_id, user_id, total_amount, discount_amount, final_amount, status, valid_until, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, number, in.CustomerID, in.UserID, total, in.Discount, final,
		QuoteStatusPending, in.ValidUntil, in.Notes,
	).Scan(&quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quote: %w", err)
	}

	for i, l := range lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO quote_items (quote_id, product_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5)
		`, quoteID, l.productID, l.quantity, l.unitPrice, l.totalPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to insert quote item %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit quote creation: %w", err)
	}
	return s.GetQuote(ctx, quoteID)
}

const quoteColumns = `q.id, q.number, q.customer_id, c.name, q.user_id,
	q.total_amount, q.discount_amount, q.final_amount,
	q.status, q.valid_until::text, q.notes, q.created_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.Number, &q.CustomerID, &q.CustomerName, &q.UserID,
		&q.TotalAmount, &q.DiscountAmount, &q.FinalAmount,
		&q.Status, &q.ValidUntil, &q.Notes, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *quoteService) GetQuote(ctx context.Context, id int) (*Quote, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		WHERE q.id = $1
	`, id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch quote %d: %w", id, err)
	}

	items, err := fetchQuoteItemsQ(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (s *quoteService) GetQuotes(ctx context.Context, status QuoteStatus) ([]Quote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id`
	var args []any
	if status != "" {
		args = append(args, status)
		query += " WHERE q.status = $1"
	}
	query += " ORDER BY q.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

func fetchQuoteItemsQ(ctx context.Context, q saleItemQuerier, quoteID int) ([]QuoteItem, error) {
	rows, err := q.Query(ctx, `
		SELECT qi.id, qi.quote_id, qi.product_id, p.name, qi.quantity, qi.unit_price, qi.total_price
		FROM quote_items qi
		JOIN products p ON p.id = qi.product_id
		WHERE qi.quote_id = $1
		ORDER BY qi.id
	`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	var items []QuoteItem
	for rows.Next() {
		var it QuoteItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *quoteService) UpdateQuoteStatus(ctx context.Context, id int, status QuoteStatus) (*Quote, error) {
	if status != QuoteStatusApproved && status != QuoteStatusRejected {
		return nil, fmt.Errorf("quotes can only be moved to approved or rejected, got %s: %w", status, ErrInvalidTransition)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current QuoteStatus
	err = tx.QueryRow(ctx, "SELECT status FROM quotes WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock quote %d: %w", id, err)
	}
	if current != QuoteStatusPending {
		return nil, fmt.Errorf("quote %d is %s, not pending: %w", id, current, ErrInvalidTransition)
	}

	if _, err = tx.Exec(ctx, "UPDATE quotes SET status = $1 WHERE id = $2", status, id); err != nil {
		return nil, fmt.Errorf("failed to update quote %d status: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return s.GetQuote(ctx, id)
}

func (s *quoteService) DeleteQuote(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status QuoteStatus
	err = tx.QueryRow(ctx, "SELECT status FROM quotes WHERE id = $1 FOR UPDATE", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to lock quote %d: %w", id, err)
	}
	if status == QuoteStatusConverted {
		return fmt.Errorf("quote %d was converted and is frozen: %w", id, ErrInvalidTransition)
	}

	// Items cascade with their quote.
	if _, err = tx.Exec(ctx, "DELETE FROM quote_items WHERE quote_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete quote items for quote %d: %w", id, err)
	}
	if _, err = tx.Exec(ctx, "DELETE FROM quotes WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete quote %d: %w", id, err)
	}
	return tx.Commit(ctx)
}

func (s *quoteService) ExpireQuotes(ctx context.Context, asOf time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quotes
		SET status = $1
		WHERE status = $2 AND valid_until < $3
	`, QuoteStatusExpired, QuoteStatusPending, asOf.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *quoteService) ConvertToSale(ctx context.Context, quoteID, userID int, payment PaymentInfo) (*Sale, error) {
	if userID == 0 {
		return nil, fmt.Errorf("conversion requires the acting user: %w", ErrInvalidInput)
	}
	payment.Normalize()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the quote so two concurrent conversions serialize; the loser
	// then fails the status guard instead of creating a second sale.
	var q Quote
	err = tx.QueryRow(ctx, `
		SELECT id, customer_id, user_id, total_amount, discount_amount, final_amount, status
		FROM quotes
		WHERE id = $1
		FOR UPDATE
	`, quoteID).Scan(&q.ID, &q.CustomerID, &q.UserID, &q.TotalAmount, &q.DiscountAmount, &q.FinalAmount, &q.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("quote %d: %w", quoteID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock quote %d: %w", quoteID, err)
	}
	if q.Status != QuoteStatusPending && q.Status != QuoteStatusApproved {
		return nil, fmt.Errorf("quote %d cannot be converted: status is %s: %w", quoteID, q.Status, ErrInvalidTransition)
	}

	items, err := fetchQuoteItemsQ(ctx, tx, quoteID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("quote %d has no items", quoteID)
	}

	// Copy amounts and line prices verbatim; items stay with the quote.
	lines := make([]resolvedSaleLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, resolvedSaleLine{
			productID:  it.ProductID,
			quantity:   it.Quantity,
			unitPrice:  it.UnitPrice,
			totalPrice: it.TotalPrice,
		})
	}

	// The shared routine is the single source of the receivable schedule;
	// conversion adds nothing of its own.
	saleID, err := createSaleTx(ctx, tx, resolvedSale{
		customerID:     q.CustomerID,
		userID:         userID,
		quoteID:        &quoteID,
		totalAmount:    q.TotalAmount,
		discountAmount: q.DiscountAmount,
		finalAmount:    q.FinalAmount,
		payment:        payment,
		saleDate:       time.Now().Format("2006-01-02"),
		notes:          fmt.Sprintf("Converted from quote %d", quoteID),
		lines:          lines,
	})
	if err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, "UPDATE quotes SET status = $1 WHERE id = $2", QuoteStatusConverted, quoteID); err != nil {
		return nil, fmt.Errorf("failed to mark quote %d converted: %w", quoteID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit conversion: %w", err)
	}
	return s.sales.GetSale(ctx, saleID)
}
