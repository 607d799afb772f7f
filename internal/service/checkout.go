package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

// CheckoutService converts a cart into an order. The whole placement is one
// database transaction: order + items created, stock decremented, cart
// emptied, or none of it.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID, shippingAddress string, payment model.PaymentMethod) (*model.Order, error)
}

type checkoutService struct {
	db     *gorm.DB
	mailer Mailer
}

func NewCheckoutService(db *gorm.DB, mailer Mailer) CheckoutService {
	return &checkoutService{db: db, mailer: mailer}
}

func (s *checkoutService) PlaceOrder(ctx context.Context, userID, shippingAddress string, payment model.PaymentMethod) (*model.Order, error) {
	var order *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		err := tx.Where("user_id = ?", userID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		var lines []model.CartItem
		if err := tx.Preload("Product").Where("cart_id = ?", cart.ID).Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		// Precheck against the stock read inside the transaction. The
		// guarded decrement below re-validates, this pass just names the
		// offending product before any write happens.
		for _, line := range lines {
			if line.Product == nil {
				return ErrNotFound
			}
			if line.Quantity > line.Product.Stock {
				return &InsufficientStockError{ProductName: line.Product.Name}
			}
		}

		// Prices come fresh from the product, not from anything the cart
		// may have cached.
		total := decimal.Zero
		items := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			qty := decimal.NewFromInt(int64(line.Quantity))
			total = total.Add(line.Product.Price.Mul(qty))
			items = append(items, model.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Product.Name,
				Price:     line.Product.Price,
				Quantity:  line.Quantity,
			})
		}

		o := model.Order{
			UserID:          userID,
			Total:           total,
			ShippingAddress: shippingAddress,
			PaymentMethod:   payment,
			Status:          model.OrderProcessing,
			Items:           items,
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		// Guarded decrement: correct under read committed without relying
		// on the precheck. Zero rows affected means a concurrent checkout
		// got there first.
		for _, line := range lines {
			res := tx.Model(&model.Product{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{ProductName: line.Product.Name}
			}
		}

		// Empty the cart but keep the shell for next time.
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}

		order = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Best effort, after commit: the order stands whether or not the
	// confirmation mail goes out.
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err == nil {
		if err := s.mailer.SendOrderConfirmationEmail(u.Email, order.ID, order.Total.StringFixed(2)); err != nil {
			slog.Error("sending order confirmation failed", "order", order.ID, "error", err)
		}
	}

	return order, nil
}
