package repository

import (
	"context"

	"golang-stock-rater/internal/entity"

	"gorm.io/gorm"
)

type StockRatingRepository interface {
	Create(ctx context.Context, rating *entity.StockRating) error
}

type stockRatingRepository struct {
	db *gorm.DB
}

func NewStockRatingRepository(db *gorm.DB) StockRatingRepository {
	return &stockRatingRepository{db: db}
}

func (s *stockRatingRepository) Create(ctx context.Context, rating *entity.StockRating) error {
	return s.db.WithContext(ctx).Create(rating).Error
}
