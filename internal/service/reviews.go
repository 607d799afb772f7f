package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

type ReviewService interface {
	// Upsert creates the user's review of a product, or replaces the
	// existing one; a user gets at most one review per product.
	Upsert(ctx context.Context, userID, productID string, rating int, comment string) (*model.Review, error)
	ListForProduct(ctx context.Context, productID string) ([]model.Review, error)
}

type reviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) ReviewService { return &reviewService{db: db} }

func (s *reviewService) Upsert(ctx context.Context, userID, productID string, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var product model.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var review model.Review
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = model.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: comment}
		if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		updates := map[string]any{"rating": rating, "comment": comment}
		if err := s.db.WithContext(ctx).Model(&review).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &review, nil
}

func (s *reviewService) ListForProduct(ctx context.Context, productID string) ([]model.Review, error) {
	var reviews []model.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}
