package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	// UpdateItemQuantity sets the line to quantity; zero or less removes it.
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID string) error
}

type cartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) CartService { return &cartService{db: db} }

// Get returns the user's cart, creating the shell lazily on first use.
func (s *cartService) Get(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := s.db.WithContext(ctx).
		Where(model.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cart.ID).
		Order("created_at asc").
		Find(&cart.Items).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	var product model.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return &InsufficientStockError{ProductName: product.Name}
	}

	var cart model.Cart
	if err := s.db.WithContext(ctx).Where(model.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return err
	}

	var line model.CartItem
	err = s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		First(&line).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		line = model.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		return s.db.WithContext(ctx).Create(&line).Error
	case err != nil:
		return err
	}

	// The whole line, not just the delta, must fit the stock.
	if line.Quantity+quantity > product.Stock {
		return &InsufficientStockError{ProductName: product.Name}
	}
	return s.db.WithContext(ctx).Model(&line).
		Update("quantity", line.Quantity+quantity).Error
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	line, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		return s.db.WithContext(ctx).Delete(&model.CartItem{}, "id = ?", line.ID).Error
	}

	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", line.ProductID).Error; err != nil {
		return err
	}
	if quantity > product.Stock {
		return &InsufficientStockError{ProductName: product.Name}
	}
	return s.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", line.ID).
		Update("quantity", quantity).Error
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	line, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&model.CartItem{}, "id = ?", line.ID).Error
}

// ownedItem loads a cart line and checks it belongs to userID. Lines in
// other users' carts are reported as ErrForbidden, missing ones ErrNotFound.
func (s *cartService) ownedItem(ctx context.Context, userID, itemID string) (*model.CartItem, error) {
	var line model.CartItem
	err := s.db.WithContext(ctx).First(&line, "id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var cart model.Cart
	if err := s.db.WithContext(ctx).First(&cart, "id = ?", line.CartID).Error; err != nil {
		return nil, err
	}
	if cart.UserID != userID {
		return nil, ErrForbidden
	}
	return &line, nil
}
