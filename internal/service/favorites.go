package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

type FavoriteService interface {
	// Toggle adds the product to the user's favorites, or removes it if
	// already there. Returns whether the product is a favorite afterwards.
	Toggle(ctx context.Context, userID, productID string) (bool, error)
	List(ctx context.Context, userID string) ([]model.Favorite, error)
}

type favoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) FavoriteService { return &favoriteService{db: db} }

func (s *favoriteService) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	var product model.Product
	err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	fav := model.Favorite{UserID: userID, ProductID: productID}
	return true, s.db.WithContext(ctx).Create(&fav).Error
}

func (s *favoriteService) List(ctx context.Context, userID string) ([]model.Favorite, error) {
	var favs []model.Favorite
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&favs).Error
	return favs, err
}
