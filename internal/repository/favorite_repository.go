package repository

import (
	"context"
	"errors"

	"github.com/nmbt2910/iheartev/internal/model"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Create(ctx context.Context, fav *model.Favorite) error
	// FindByUserAndListing returns (nil, nil) when the pair is absent.
	FindByUserAndListing(ctx context.Context, userUID string, listingID uint64) (*model.Favorite, error)
	DeleteByUserAndListing(ctx context.Context, userUID string, listingID uint64) (int64, error)
	// DeleteByListing removes every favorite of the listing. Idempotent.
	DeleteByListing(ctx context.Context, listingID uint64) error
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, fav *model.Favorite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

func (r *favoriteRepository) FindByUserAndListing(ctx context.Context, userUID string, listingID uint64) (*model.Favorite, error) {
	var fav model.Favorite
	err := r.db.WithContext(ctx).
		Where("user_uid = ? AND listing_id = ?", userUID, listingID).
		First(&fav).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fav, nil
}

func (r *favoriteRepository) DeleteByUserAndListing(ctx context.Context, userUID string, listingID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_uid = ? AND listing_id = ?", userUID, listingID).
		Delete(&model.Favorite{})
	return res.RowsAffected, res.Error
}

func (r *favoriteRepository) DeleteByListing(ctx context.Context, listingID uint64) error {
	return r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Delete(&model.Favorite{}).Error
}
