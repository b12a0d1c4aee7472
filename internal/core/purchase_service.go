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

// PurchaseLineInput is one ordered product line for a supplier purchase.
type PurchaseLineInput struct {
	ProductID int
	Quantity  int
	UnitCost  decimal.Decimal
}

// PurchaseInput is the request for a new supplier purchase.
type PurchaseInput struct {
	SupplierID   int
	UserID       int
	Payment      PaymentInfo
	PurchaseDate string
	Notes        string
	Lines        []PurchaseLineInput
}

// PurchaseService manages suppliers and inbound stock purchases. Purchase
// creation mirrors sale creation: one transaction covering the header,
// items, stock increments, and the derived payable schedule.
type PurchaseService interface {
	CreateSupplier(ctx context.Context, sup Supplier) (*Supplier, error)
	UpdateSupplier(ctx context.Context, sup Supplier) (*Supplier, error)
	GetSupplier(ctx context.Context, id int) (*Supplier, error)
	GetSuppliers(ctx context.Context) ([]Supplier, error)

	CreatePurchase(ctx context.Context, in PurchaseInput) (*Purchase, error)
	GetPurchase(ctx context.Context, id int) (*Purchase, error)
	GetPurchases(ctx context.Context, supplierID int) ([]Purchase, error)
	// CancelPurchase reverses an active purchase: stock is removed again
	// and unpaid payables are deleted. Refused once any payable was paid,
	// and refused if the received stock was already sold on.
	CancelPurchase(ctx context.Context, purchaseID, userID int) (*Purchase, error)
}

type purchaseService struct {
	pool *pgxpool.Pool
}

func NewPurchaseService(pool *pgxpool.Pool) PurchaseService {
	return &purchaseService{pool: pool}
}

const supplierColumns = "id, name, email, phone, document, address, created_at"

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var sup Supplier
	err := row.Scan(&sup.ID, &sup.Name, &sup.Email, &sup.Phone, &sup.Document, &sup.Address, &sup.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *purchaseService) CreateSupplier(ctx context.Context, sup Supplier) (*Supplier, error) {
	if sup.Name == "" {
		return nil, fmt.Errorf("supplier name is required: %w", ErrInvalidInput)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, email, phone, document, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+supplierColumns,
		sup.Name, sup.Email, sup.Phone, sup.Document, sup.Address)
	created, err := scanSupplier(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return created, nil
}

func (s *purchaseService) UpdateSupplier(ctx context.Context, sup Supplier) (*Supplier, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $1, email = $2, phone = $3, document = $4, address = $5
		WHERE id = $6
		RETURNING `+supplierColumns,
		sup.Name, sup.Email, sup.Phone, sup.Document, sup.Address, sup.ID)
	updated, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", sup.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update supplier %d: %w", sup.ID, err)
	}
	return updated, nil
}

func (s *purchaseService) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id)
	sup, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch supplier %d: %w", id, err)
	}
	return sup, nil
}

func (s *purchaseService) GetSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+supplierColumns+" FROM suppliers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, rows.Err()
}

func (s *purchaseService) CreatePurchase(ctx context.Context, in PurchaseInput) (*Purchase, error) {
	in.Payment.Normalize()
	if in.UserID == 0 {
		return nil, fmt.Errorf("purchase requires the acting user: %w", ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("purchase must have at least one item: %w", ErrInvalidInput)
	}
	if in.PurchaseDate == "" {
		in.PurchaseDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", in.PurchaseDate); err != nil {
		return nil, fmt.Errorf("invalid purchase date %q: %w", in.PurchaseDate, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total decimal.Decimal
	for i, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("line %d: quantity must be positive, got %d: %w", i+1, l.Quantity, ErrInvalidInput)
		}
		if l.UnitCost.IsNegative() {
			return nil, fmt.Errorf("line %d: unit cost cannot be negative: %w", i+1, ErrInvalidInput)
		}
		total = total.Add(l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	number, err := nextNumberTx(ctx, tx, seqPurchase)
	if err != nil {
		return nil, err
	}

	var purchaseID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (number, supplier_id, user_id, total_amount, payment_method, installments, status, purchase_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, number, in.SupplierID, in.UserID, total, in.Payment.Method, in.Payment.Installments,
		PurchaseStatusActive, in.PurchaseDate, in.Notes,
	).Scan(&purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	for i, l := range in.Lines {
		totalCost := l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		_, err = tx.Exec(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_cost, total_cost)
			VALUES ($1, $2, $3, $4, $5)
		`, purchaseID, l.ProductID, l.Quantity, l.UnitCost, totalCost)
		if err != nil {
			return nil, fmt.Errorf("failed to insert purchase item %d: %w", i+1, err)
		}
		if err := incrementStockTx(ctx, tx, l.ProductID, l.Quantity); err != nil {
			return nil, err
		}
		// Received goods set the catalog's current replacement cost.
		if _, err := tx.Exec(ctx,
			"UPDATE products SET cost_price = $1 WHERE id = $2", l.UnitCost, l.ProductID); err != nil {
			return nil, fmt.Errorf("failed to update cost for product %d: %w", l.ProductID, err)
		}
	}

	// Payables are anchored to the purchase date, not the entry time.
	from, err := time.Parse("2006-01-02", in.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase date %q: %w", in.PurchaseDate, ErrInvalidInput)
	}
	plan, err := PayablePlan(total, in.Payment.Method, in.Payment.Installments, number, from)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payable schedule for purchase %s: %w", number, err)
	}
	if err := schedulePayablesTx(ctx, tx, in.SupplierID, purchaseID, plan); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase creation: %w", err)
	}
	return s.GetPurchase(ctx, purchaseID)
}

const purchaseColumns = `p.id, p.number, p.supplier_id, sup.name, p.user_id,
	p.total_amount, p.payment_method, p.installments, p.status,
	p.purchase_date::text, p.notes, p.created_at`

func scanPurchase(row pgx.Row) (*Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.Number, &p.SupplierID, &p.SupplierName, &p.UserID,
		&p.TotalAmount, &p.PaymentMethod, &p.Installments, &p.Status,
		&p.PurchaseDate, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases p
		JOIN suppliers sup ON sup.id = p.supplier_id
		WHERE p.id = $1
	`, id)
	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch purchase %d: %w", id, err)
	}

	items, err := fetchPurchaseItems(ctx, s.pool, id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

func (s *purchaseService) GetPurchases(ctx context.Context, supplierID int) ([]Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases p
		JOIN suppliers sup ON sup.id = p.supplier_id`
	var args []any
	if supplierID != 0 {
		args = append(args, supplierID)
		query += " WHERE p.supplier_id = $1"
	}
	query += " ORDER BY p.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

func fetchPurchaseItems(ctx context.Context, q saleItemQuerier, purchaseID int) ([]PurchaseItem, error) {
	rows, err := q.Query(ctx, `
		SELECT pi.id, pi.purchase_id, pi.product_id, p.name, pi.quantity, pi.unit_cost, pi.total_cost
		FROM purchase_items pi
		JOIN products p ON p.id = pi.product_id
		WHERE pi.purchase_id = $1
		ORDER BY pi.id
	`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase items: %w", err)
	}
	defer rows.Close()

	var items []PurchaseItem
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitCost, &it.TotalCost); err != nil {
			return nil, fmt.Errorf("failed to scan purchase item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *purchaseService) CancelPurchase(ctx context.Context, purchaseID, userID int) (*Purchase, error) {
	if userID == 0 {
		return nil, fmt.Errorf("cancellation requires the acting user: %w", ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status PurchaseStatus
	err = tx.QueryRow(ctx, "SELECT status FROM purchases WHERE id = $1 FOR UPDATE", purchaseID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase %d: %w", purchaseID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock purchase %d: %w", purchaseID, err)
	}
	if status != PurchaseStatusActive {
		return nil, fmt.Errorf("purchase %d cannot be cancelled: status is %s: %w", purchaseID, status, ErrInvalidTransition)
	}

	// Only unpaid rows are deleted; any row still present afterwards was
	// settled, possibly by a concurrent payment, and aborts the cancellation.
	if _, err = tx.Exec(ctx,
		"DELETE FROM financial_accounts WHERE purchase_id = $1 AND status <> $2",
		purchaseID, AccountStatusPaid,
	); err != nil {
		return nil, fmt.Errorf("failed to remove payables for purchase %d: %w", purchaseID, err)
	}
	var paidCount int
	err = tx.QueryRow(ctx,
		"SELECT count(*) FROM financial_accounts WHERE purchase_id = $1", purchaseID,
	).Scan(&paidCount)
	if err != nil {
		return nil, fmt.Errorf("failed to check payables for purchase %d: %w", purchaseID, err)
	}
	if paidCount > 0 {
		return nil, fmt.Errorf("purchase %d has %d paid installments: %w", purchaseID, paidCount, ErrInvalidTransition)
	}

	items, err := fetchPurchaseItems(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}
	// The guarded decrement refuses the reversal when the received units
	// were already sold on.
	for _, it := range items {
		if err := decrementStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}

	if _, err = tx.Exec(ctx, "UPDATE purchases SET status = $1 WHERE id = $2", PurchaseStatusCancelled, purchaseID); err != nil {
		return nil, fmt.Errorf("failed to cancel purchase %d: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return s.GetPurchase(ctx, purchaseID)
}
