package repository

import (
	"context"

	"github.com/stemsi/kodemy-backend/internal/model"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	ListByCourse(ctx context.Context, courseID int) ([]model.Review, error)
	Create(ctx context.Context, review *model.Review) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) ListByCourse(ctx context.Context, courseID int) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}
