package core_test

import (
	"errors"
	"testing"

	"optic-backoffice/internal/core"
)

func TestUser_AuthenticateRoundTrip(t *testing.T) {
	f := setupTestDB(t)
	users := core.NewUserService(f.pool)

	created, err := users.CreateUser(f.ctx, "ana", "ana@test.local", "correct-horse", "admin")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if created.PasswordHash == "correct-horse" {
		t.Fatal("password stored in plain text")
	}

	u, err := users.Authenticate(f.ctx, "ana", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if u.ID != created.ID || u.Role != "admin" {
		t.Errorf("unexpected user: %+v", u)
	}

	// Wrong password and unknown user are indistinguishable.
	if _, err := users.Authenticate(f.ctx, "ana", "wrong"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong password, got %v", err)
	}
	if _, err := users.Authenticate(f.ctx, "nobody", "correct-horse"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUser_DeactivatedCannotAuthenticate(t *testing.T) {
	f := setupTestDB(t)
	users := core.NewUserService(f.pool)

	u, err := users.CreateUser(f.ctx, "leaving", "", "temporary1", "seller")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := users.DeactivateUser(f.ctx, u.ID); err != nil {
		t.Fatalf("DeactivateUser failed: %v", err)
	}
	if _, err := users.Authenticate(f.ctx, "leaving", "temporary1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound for deactivated user, got %v", err)
	}
}

func TestUser_ChangePassword(t *testing.T) {
	f := setupTestDB(t)
	users := core.NewUserService(f.pool)

	u, err := users.CreateUser(f.ctx, "carlos", "", "original-pass", "seller")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := users.ChangePassword(f.ctx, u.ID, "short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := users.ChangePassword(f.ctx, u.ID, "brand-new-pass"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := users.Authenticate(f.ctx, "carlos", "original-pass"); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := users.Authenticate(f.ctx, "carlos", "brand-new-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestProduct_AdjustStockGuard(t *testing.T) {
	f := setupTestDB(t)
	products := core.NewProductService(f.pool)

	if err := products.AdjustStock(f.ctx, f.lensID, 3); err != nil {
		t.Fatalf("AdjustStock +3 failed: %v", err)
	}
	if got := f.stockOf(t, f.lensID); got != 8 {
		t.Errorf("expected stock 8, got %d", got)
	}

	if err := products.AdjustStock(f.ctx, f.lensID, -20); !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := f.stockOf(t, f.lensID); got != 8 {
		t.Errorf("stock changed by failed adjustment: %d", got)
	}
}

func TestProduct_LowStockList(t *testing.T) {
	f := setupTestDB(t)
	products := core.NewProductService(f.pool)

	// Drain the lens down to its minimum.
	if err := products.AdjustStock(f.ctx, f.lensID, -4); err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}

	low, err := products.GetLowStock(f.ctx)
	if err != nil {
		t.Fatalf("GetLowStock failed: %v", err)
	}
	if len(low) != 1 || low[0].ID != f.lensID {
		t.Errorf("expected only the lens in low stock, got %+v", low)
	}
}
