package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/nmbt2910/iheartev/internal/model"
	"gorm.io/gorm"
)

// ListingSearchFilter carries the optional search criteria. A non-nil Status
// overrides the default approved-only view and skips the active-order
// exclusion.
type ListingSearchFilter struct {
	Type        *model.ListingType
	Brand       string
	Status      *model.ListingStatus
	MinYear     *int
	MaxYear     *int
	MinCapacity *int
	MinPrice    *float64
	MaxPrice    *float64
}

type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	FindByID(ctx context.Context, id uint64) (*model.Listing, error)
	Update(ctx context.Context, listing *model.Listing) error
	// UpdateStatusIf flips status only when the stored value still matches
	// from, returning the number of rows changed. Zero rows means the guard
	// lost a race.
	UpdateStatusIf(ctx context.Context, id uint64, from, to model.ListingStatus) (int64, error)
	Search(ctx context.Context, f ListingSearchFilter, limit, offset int) ([]model.Listing, int64, error)
	ListPending(ctx context.Context) ([]model.Listing, error)
	CountByStatus(ctx context.Context) (map[model.ListingStatus]int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uint64) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *listingRepository) UpdateStatusIf(ctx context.Context, id uint64, from, to model.ListingStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// activeOrderListingIDs is the subquery of listings held by a live order.
func activeOrderListingIDs(db *gorm.DB) *gorm.DB {
	return db.
		Model(&model.Order{}).
		Select("listing_id").
		Where("status NOT IN ?", []model.OrderStatus{model.OrderStatusCancelled, model.OrderStatusClosed})
}

func (r *listingRepository) Search(ctx context.Context, f ListingSearchFilter, limit, offset int) ([]model.Listing, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Listing{}).Where("deleted_at IS NULL")

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	} else {
		q = q.Where("status IN ?", []model.ListingStatus{model.ListingStatusApproved, model.ListingStatusLegacyActive})
		q = q.Where("id NOT IN (?)", activeOrderListingIDs(r.db.WithContext(ctx)))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Brand != "" {
		q = q.Where("LOWER(brand) LIKE ?", "%"+strings.ToLower(f.Brand)+"%")
	}
	if f.MinYear != nil {
		q = q.Where("year >= ?", *f.MinYear)
	}
	if f.MaxYear != nil {
		q = q.Where("year <= ?", *f.MaxYear)
	}
	if f.MinCapacity != nil {
		q = q.Where("battery_capacity_kwh >= ?", *f.MinCapacity)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var listings []model.Listing
	if err := q.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) ListPending(ctx context.Context) ([]model.Listing, error) {
	var listings []model.Listing
	if err := r.db.WithContext(ctx).
		Where("status = ? AND deleted_at IS NULL", model.ListingStatusPending).
		Order("created_at desc").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// CountByStatus counts non-deleted listings per state. SOLD is counted
// regardless of deletion so closed sales never vanish from the report.
func (r *listingRepository) CountByStatus(ctx context.Context) (map[model.ListingStatus]int64, error) {
	type row struct {
		Status model.ListingStatus
		N      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Select("status, COUNT(*) AS n").
		Where("deleted_at IS NULL OR status = ?", model.ListingStatusSold).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.ListingStatus]int64, len(rows))
	for _, rw := range rows {
		counts[model.NormalizeListingStatus(rw.Status)] += rw.N
	}
	return counts, nil
}

// IsNotFound reports whether err is the storage "record absent" error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
