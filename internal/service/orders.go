package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

type OrderService interface {
	ListForUser(ctx context.Context, userID string, page, limit int) ([]model.Order, int64, error)
	GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error)

	ListAll(ctx context.Context, page, limit int) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error
}

type orderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) OrderService { return &orderService{db: db} }

func (s *orderService) ListForUser(ctx context.Context, userID string, page, limit int) ([]model.Order, int64, error) {
	return s.list(ctx, s.db.WithContext(ctx).Where("user_id = ?", userID), page, limit)
}

func (s *orderService) ListAll(ctx context.Context, page, limit int) ([]model.Order, int64, error) {
	return s.list(ctx, s.db.WithContext(ctx), page, limit)
}

func (s *orderService) list(ctx context.Context, q *gorm.DB, page, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := q.Model(&model.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var orders []model.Order
	err := q.Preload("Items").
		Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetForUser fetches one order and hides other users' orders behind
// ErrNotFound rather than ErrForbidden, so order IDs cannot be probed.
func (s *orderService) GetForUser(ctx context.Context, userID, orderID string) (*model.Order, error) {
	var o model.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// legalTransitions: delivered and cancelled are terminal.
var legalTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderProcessing: {model.OrderShipped, model.OrderCancelled},
	model.OrderShipped:    {model.OrderDelivered, model.OrderCancelled},
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o model.Order
		err := tx.First(&o, "id = ?", orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		allowed := false
		for _, next := range legalTransitions[o.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidTransition
		}
		return tx.Model(&o).Update("status", status).Error
	})
}
