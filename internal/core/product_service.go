package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductService manages the product catalog and stock levels.
type ProductService interface {
	CreateProduct(ctx context.Context, p Product) (*Product, error)
	UpdateProduct(ctx context.Context, p Product) (*Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	GetProducts(ctx context.Context, activeOnly bool) ([]Product, error)
	GetLowStock(ctx context.Context) ([]Product, error)
	// AdjustStock applies a signed delta to a product's stock quantity.
	// Negative deltas are guarded: the quantity never goes below zero.
	AdjustStock(ctx context.Context, productID, delta int) error
	DeactivateProduct(ctx context.Context, id int) error
}

type productService struct {
	pool *pgxpool.Pool
}

func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

const productColumns = "id, sku, name, description, category, brand, cost_price, sale_price, stock_quantity, min_stock, is_active, created_at"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Brand,
		&p.CostPrice, &p.SalePrice, &p.StockQuantity, &p.MinStock, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *productService) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	if p.Name == "" || p.SKU == "" {
		return nil, fmt.Errorf("product sku and name are required: %w", ErrInvalidInput)
	}
	if p.SalePrice.IsNegative() || p.CostPrice.IsNegative() {
		return nil, fmt.Errorf("product prices cannot be negative: %w", ErrInvalidInput)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (sku, name, description, category, brand, cost_price, sale_price, stock_quantity, min_stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		RETURNING `+productColumns,
		p.SKU, p.Name, p.Description, p.Category, p.Brand, p.CostPrice, p.SalePrice, p.StockQuantity, p.MinStock)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

func (s *productService) UpdateProduct(ctx context.Context, p Product) (*Product, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE products
		SET sku = $1, name = $2, description = $3, category = $4, brand = $5,
		    cost_price = $6, sale_price = $7, min_stock = $8
		WHERE id = $9
		RETURNING `+productColumns,
		p.SKU, p.Name, p.Description, p.Category, p.Brand, p.CostPrice, p.SalePrice, p.MinStock, p.ID)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", p.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	return updated, nil
}

func (s *productService) GetProduct(ctx context.Context, id int) (*Product, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return p, nil
}

func (s *productService) GetProducts(ctx context.Context, activeOnly bool) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *productService) GetLowStock(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = true AND stock_quantity <= min_stock ORDER BY stock_quantity")
	if err != nil {
		return nil, fmt.Errorf("failed to query low-stock products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *productService) AdjustStock(ctx context.Context, productID, delta int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if delta < 0 {
		if err := decrementStockTx(ctx, tx, productID, -delta); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx,
			"UPDATE products SET stock_quantity = stock_quantity + $1 WHERE id = $2", delta, productID); err != nil {
			return fmt.Errorf("failed to adjust stock for product %d: %w", productID, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *productService) DeactivateProduct(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE products SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}

// decrementStockTx atomically deducts qty from a product's stock within the
// caller's transaction. The WHERE guard makes concurrent decrements safe:
// either the row still has enough stock and the UPDATE wins, or zero rows
// are affected and the whole transaction aborts with ErrInsufficientStock.
func decrementStockTx(ctx context.Context, tx pgx.Tx, productID, qty int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $1
		WHERE id = $2 AND stock_quantity >= $1
	`, qty, productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product %d: %w", productID, err)
		}
		if !exists {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return fmt.Errorf("product %d needs %d units: %w", productID, qty, ErrInsufficientStock)
	}
	return nil
}

// incrementStockTx adds qty back to a product's stock within the caller's
// transaction. Used by purchases and sale cancellation reversals.
func incrementStockTx(ctx context.Context, tx pgx.Tx, productID, qty int) error {
	tag, err := tx.Exec(ctx,
		"UPDATE products SET stock_quantity = stock_quantity + $1 WHERE id = $2", qty, productID)
	if err != nil {
		return fmt.Errorf("failed to increment stock for product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}
