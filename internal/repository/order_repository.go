package repository

import (
	"context"

	"github.com/nmbt2910/iheartev/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	// ExistsNonCancelled reports whether any order other than a CANCELLED
	// one references the listing (invariant: at most one such order).
	ExistsNonCancelled(ctx context.Context, listingID uint64) (bool, error)
	// ExistsActive reports whether a non-terminal (neither CANCELLED nor
	// CLOSED) order references the listing.
	ExistsActive(ctx context.Context, listingID uint64) (bool, error)
	ListByParty(ctx context.Context, uid string) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepository) ExistsNonCancelled(ctx context.Context, listingID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("listing_id = ? AND status <> ?", listingID, model.OrderStatusCancelled).
		Count(&n).Error
	return n > 0, err
}

func (r *orderRepository) ExistsActive(ctx context.Context, listingID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("listing_id = ? AND status NOT IN ?", listingID,
			[]model.OrderStatus{model.OrderStatusCancelled, model.OrderStatusClosed}).
		Count(&n).Error
	return n > 0, err
}

func (r *orderRepository) ListByParty(ctx context.Context, uid string) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("buyer_uid = ? OR seller_uid = ?", uid, uid).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
