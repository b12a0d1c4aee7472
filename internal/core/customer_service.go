package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService manages customer master data.
type CustomerService interface {
	CreateCustomer(ctx context.Context, c Customer) (*Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (*Customer, error)
	GetCustomer(ctx context.Context, id int) (*Customer, error)
	GetCustomers(ctx context.Context, search string) ([]Customer, error)
	DeleteCustomer(ctx context.Context, id int) error
}

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

const customerColumns = "id, name, email, phone, document, address, birth_date::text, notes, created_at"

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Document, &c.Address, &c.BirthDate, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, c Customer) (*Customer, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("customer name is required: %w", ErrInvalidInput)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, document, address, birth_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Document, c.Address, c.BirthDate, c.Notes)
	created, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return created, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, c Customer) (*Customer, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, document = $4, address = $5, birth_date = $6, notes = $7
		WHERE id = $8
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone, c.Document, c.Address, c.BirthDate, c.Notes, c.ID)
	updated, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", c.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update customer %d: %w", c.ID, err)
	}
	return updated, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", id, err)
	}
	return c, nil
}

func (s *customerService) GetCustomers(ctx context.Context, search string) ([]Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers"
	args := []any{}
	if search != "" {
		query += " WHERE name ILIKE $1 OR document ILIKE $1"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY name"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *customerService) DeleteCustomer(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	return nil
}
