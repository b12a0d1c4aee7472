package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// fixture is the shared seed every integration test starts from.
type fixture struct {
	pool       *pgxpool.Pool
	ctx        context.Context
	userID     int
	customerID int
	supplierID int
	frameID    int // stock 10, price 150.00
	lensID     int // stock 5, price 300.00
}

func setupTestDB(t *testing.T) fixture {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE financial_accounts, sale_items, sales, quote_items, quotes,
			purchase_items, purchases, prescriptions, products, suppliers, customers,
			users, number_sequences CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	f := fixture{pool: pool, ctx: ctx}

	err = pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ('seller1', 'seller1@test.local', 'x', 'seller')
		RETURNING id
	`).Scan(&f.userID)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	err = pool.QueryRow(ctx,
		"INSERT INTO customers (name, document) VALUES ('Maria Silva', '111.222.333-44') RETURNING id",
	).Scan(&f.customerID)
	if err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}

	err = pool.QueryRow(ctx,
		"INSERT INTO suppliers (name) VALUES ('Optik Distribution') RETURNING id",
	).Scan(&f.supplierID)
	if err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}

	err = pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, category, cost_price, sale_price, stock_quantity, min_stock)
		VALUES ('FR-001', 'Acetate Frame', 'frame', 60.00, 150.00, 10, 2)
		RETURNING id
	`).Scan(&f.frameID)
	if err != nil {
		t.Fatalf("Failed to seed frame product: %v", err)
	}

	err = pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, category, cost_price, sale_price, stock_quantity, min_stock)
		VALUES ('LN-001', 'Single Vision Lens', 'lens', 120.00, 300.00, 5, 1)
		RETURNING id
	`).Scan(&f.lensID)
	if err != nil {
		t.Fatalf("Failed to seed lens product: %v", err)
	}

	return f
}

func (f fixture) stockOf(t *testing.T, productID int) int {
	t.Helper()
	var qty int
	if err := f.pool.QueryRow(f.ctx,
		"SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&qty); err != nil {
		t.Fatalf("Failed to read stock for product %d: %v", productID, err)
	}
	return qty
}

func (f fixture) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := f.pool.QueryRow(f.ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}
