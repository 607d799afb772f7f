package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ivan2214/ecommerce/internal/model"
)

func TestCartAddItemStockBound(t *testing.T) {
	db := testDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := createUser(t, db, "u@example.com", "password123", true)
	product := createProduct(t, db, "Blue T-Shirt", "19.99", 3)

	if err := svc.AddItem(ctx, user.ID, product.ID, 4); !isInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := svc.AddItem(ctx, user.ID, product.ID, 2); err != nil {
		t.Fatalf("adding within stock: %v", err)
	}
	// The existing line counts against the bound: 2 + 2 > 3.
	if err := svc.AddItem(ctx, user.ID, product.ID, 2); !isInsufficientStock(err) {
		t.Fatalf("expected line total to be bounded by stock, got %v", err)
	}
	// 2 + 1 == 3 is fine, and accumulates into one line.
	if err := svc.AddItem(ctx, user.ID, product.ID, 1); err != nil {
		t.Fatalf("topping up to stock: %v", err)
	}

	cart, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	db := testDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "u@example.com", "password123", true)
	product := createProduct(t, db, "Sneakers", "69.99", 5)

	if err := svc.AddItem(ctx, user.ID, product.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for qty 0, got %v", err)
	}
	if err := svc.AddItem(ctx, user.ID, "missing-product", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown product, got %v", err)
	}
}

func TestCartUpdateQuantity(t *testing.T) {
	db := testDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := createUser(t, db, "u@example.com", "password123", true)
	product := createProduct(t, db, "Red Hoodie", "45.99", 5)
	addCartLine(t, db, user.ID, product.ID, 2)

	cart, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	lineID := cart.Items[0].ID

	if err := svc.UpdateItemQuantity(ctx, user.ID, lineID, 6); !isInsufficientStock(err) {
		t.Fatalf("expected stock bound on update, got %v", err)
	}
	if err := svc.UpdateItemQuantity(ctx, user.ID, lineID, 5); err != nil {
		t.Fatalf("update within stock: %v", err)
	}

	// Zero or negative removes the line.
	if err := svc.UpdateItemQuantity(ctx, user.ID, lineID, 0); err != nil {
		t.Fatalf("removing via zero quantity: %v", err)
	}
	cart, err = svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
}

func TestCartOwnership(t *testing.T) {
	db := testDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com", "password123", true)
	thief := createUser(t, db, "thief@example.com", "password123", true)
	product := createProduct(t, db, "Sneakers", "69.99", 5)
	addCartLine(t, db, owner.ID, product.ID, 1)

	cart, err := svc.Get(ctx, owner.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	lineID := cart.Items[0].ID

	if err := svc.UpdateItemQuantity(ctx, thief.ID, lineID, 3); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on update, got %v", err)
	}
	if err := svc.RemoveItem(ctx, thief.ID, lineID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden on remove, got %v", err)
	}
	if err := svc.RemoveItem(ctx, owner.ID, lineID); err != nil {
		t.Errorf("owner remove failed: %v", err)
	}

	var count int64
	db.Model(&model.CartItem{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no cart lines left, got %d", count)
	}
}

func isInsufficientStock(err error) bool {
	var stockErr *InsufficientStockError
	return errors.As(err, &stockErr)
}
