package repository

import (
	"context"
	"errors"

	"github.com/nmbt2910/iheartev/internal/model"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint64) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint64) error
	// FindByOrderAndReviewer returns (nil, nil) when no review exists for
	// the pair.
	FindByOrderAndReviewer(ctx context.Context, orderID uint64, reviewerUID string) (*model.Review, error)
	ListByReviewee(ctx context.Context, revieweeUID string) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint64) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.Review{}, id).Error
}

func (r *reviewRepository) FindByOrderAndReviewer(ctx context.Context, orderID uint64, reviewerUID string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND reviewer_uid = ?", orderID, reviewerUID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByReviewee(ctx context.Context, revieweeUID string) ([]model.Review, error) {
	var reviews []model.Review
	if err := r.db.WithContext(ctx).
		Where("reviewee_uid = ?", revieweeUID).
		Order("id DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
