package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages back-office users and credential checks.
type UserService interface {
	CreateUser(ctx context.Context, username, email, password, role string) (*User, error)
	GetUser(ctx context.Context, id int) (*User, error)
	GetUsers(ctx context.Context) ([]User, error)
	// Authenticate verifies a username/password pair against the stored
	// bcrypt hash. Unknown users and bad passwords both return ErrNotFound
	// so callers cannot distinguish them.
	Authenticate(ctx context.Context, username, password string) (*User, error)
	ChangePassword(ctx context.Context, id int, newPassword string) error
	DeactivateUser(ctx context.Context, id int) error
}

type userService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userColumns = "id, username, email, password_hash, role, is_active, created_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userService) CreateUser(ctx context.Context, username, email, password, role string) (*User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", ErrInvalidInput)
	}
	if role == "" {
		role = "seller"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING `+userColumns,
		username, email, string(hash), role)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *userService) GetUser(ctx context.Context, id int) (*User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return u, nil
}

func (s *userService) GetUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1 AND is_active = true", username)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrNotFound)
	}
	return u, nil
}

func (s *userService) ChangePassword(ctx context.Context, id int, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	tag, err := s.pool.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", string(hash), id)
	if err != nil {
		return fmt.Errorf("failed to change password for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *userService) DeactivateUser(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "UPDATE users SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
