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

// AccountFilter narrows financial account queries. Zero values mean "any".
type AccountFilter struct {
	Type       AccountType
	Status     AccountStatus
	CustomerID int
	SupplierID int
	SaleID     int
}

// FinancialService manages receivable and payable rows. Sale- and
// purchase-derived schedules are inserted only through the Tx helpers,
// inside the owning transaction.
type FinancialService interface {
	GetAccount(ctx context.Context, id int) (*FinancialAccount, error)
	GetAccounts(ctx context.Context, f AccountFilter) ([]FinancialAccount, error)
	// CreatePayable records a manual expense obligation not derived from a purchase.
	CreatePayable(ctx context.Context, supplierID *int, description string, amount decimal.Decimal, dueDate string) (*FinancialAccount, error)
	// MarkPaid settles a pending or overdue account.
	MarkPaid(ctx context.Context, id int, paidDate string) (*FinancialAccount, error)
	// MarkOverdue flips every pending account whose due date is before asOf
	// to overdue and reports how many rows changed. Invoked on demand;
	// there is no background process.
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

type financialService struct {
	pool *pgxpool.Pool
}

func NewFinancialService(pool *pgxpool.Pool) FinancialService {
	return &financialService{pool: pool}
}

const accountColumns = `id, type, customer_id, supplier_id, sale_id, purchase_id,
	installment_no, description, amount, due_date::text, paid_date::text, status, created_at`

func scanAccount(row pgx.Row) (*FinancialAccount, error) {
	var a FinancialAccount
	err := row.Scan(&a.ID, &a.Type, &a.CustomerID, &a.SupplierID, &a.SaleID, &a.PurchaseID,
		&a.InstallmentNo, &a.Description, &a.Amount, &a.DueDate, &a.PaidDate, &a.Status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// scheduleReceivablesTx inserts the receivable rows for a sale's installment
// plan within the caller's transaction.
func scheduleReceivablesTx(ctx context.Context, tx pgx.Tx, customerID, saleID int, plan []InstallmentDue) error {
	for _, due := range plan {
		_, err := tx.Exec(ctx, `
			INSERT INTO financial_accounts (type, customer_id, sale_id, installment_no, description, amount, due_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, AccountReceivable, customerID, saleID, due.Number, due.Description,
			due.Amount, due.DueDate.Format("2006-01-02"), AccountStatusPending)
		if err != nil {
			return fmt.Errorf("failed to insert receivable %d for sale %d: %w", due.Number, saleID, err)
		}
	}
	return nil
}

// schedulePayablesTx inserts the payable rows for a purchase's installment
// plan within the caller's transaction.
func schedulePayablesTx(ctx context.Context, tx pgx.Tx, supplierID, purchaseID int, plan []InstallmentDue) error {
	for _, due := range plan {
		_, err := tx.Exec(ctx, `
			INSERT INTO financial_accounts (type, supplier_id, purchase_id, installment_no, description, amount, due_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, AccountPayable, supplierID, purchaseID, due.Number, due.Description,
			due.Amount, due.DueDate.Format("2006-01-02"), AccountStatusPending)
		if err != nil {
			return fmt.Errorf("failed to insert payable %d for purchase %d: %w", due.Number, purchaseID, err)
		}
	}
	return nil
}

func (s *financialService) GetAccount(ctx context.Context, id int) (*FinancialAccount, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+accountColumns+" FROM financial_accounts WHERE id = $1", id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("financial account %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch financial account %d: %w", id, err)
	}
	return a, nil
}

func (s *financialService) GetAccounts(ctx context.Context, f AccountFilter) ([]FinancialAccount, error) {
	query := "SELECT " + accountColumns + " FROM financial_accounts WHERE 1=1"
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND %s = $%d", cond, len(args))
	}
	if f.Type != "" {
		add("type", f.Type)
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	if f.CustomerID != 0 {
		add("customer_id", f.CustomerID)
	}
	if f.SupplierID != 0 {
		add("supplier_id", f.SupplierID)
	}
	if f.SaleID != 0 {
		add("sale_id", f.SaleID)
	}
	query += " ORDER BY due_date, installment_no"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query financial accounts: %w", err)
	}
	defer rows.Close()

	var accounts []FinancialAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan financial account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *financialService) CreatePayable(ctx context.Context, supplierID *int, description string, amount decimal.Decimal, dueDate string) (*FinancialAccount, error) {
	if description == "" {
		return nil, fmt.Errorf("payable description is required: %w", ErrInvalidInput)
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, fmt.Errorf("payable amount must be > 0, got %s: %w", amount, ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", dueDate); err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", dueDate, ErrInvalidInput)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO financial_accounts (type, supplier_id, installment_no, description, amount, due_date, status)
		VALUES ($1, $2, 1, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		AccountPayable, supplierID, description, amount, dueDate, AccountStatusPending)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create payable: %w", err)
	}
	return a, nil
}

func (s *financialService) MarkPaid(ctx context.Context, id int, paidDate string) (*FinancialAccount, error) {
	if paidDate == "" {
		paidDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", paidDate); err != nil {
		return nil, fmt.Errorf("invalid paid date %q: %w", paidDate, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status AccountStatus
	err = tx.QueryRow(ctx, "SELECT status FROM financial_accounts WHERE id = $1 FOR UPDATE", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("financial account %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock financial account %d: %w", id, err)
	}
	if status == AccountStatusPaid {
		return nil, fmt.Errorf("financial account %d is already paid: %w", id, ErrInvalidTransition)
	}

	row := tx.QueryRow(ctx, `
		UPDATE financial_accounts
		SET status = $1, paid_date = $2
		WHERE id = $3
		RETURNING `+accountColumns,
		AccountStatusPaid, paidDate, id)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("failed to mark account %d paid: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return a, nil
}

func (s *financialService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE financial_accounts
		SET status = $1
		WHERE status = $2 AND due_date < $3
	`, AccountStatusOverdue, AccountStatusPending, asOf.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue accounts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
