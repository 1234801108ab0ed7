package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nmbt2910/iheartev/internal/locking"
	"github.com/nmbt2910/iheartev/internal/metrics"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
	"go.uber.org/zap"
)

// PartyInfo is the denormalized contact view of one side of an order.
// Unknown users render as empty fields rather than an error.
type PartyInfo struct {
	UID      string
	FullName string
	Email    string
	Phone    string
}

// OrderDetail is the display view of an order for one of its parties.
type OrderDetail struct {
	Order    *model.Order
	Listing  *model.Listing
	Buyer    PartyInfo
	Seller   PartyInfo
	Payment  model.PaymentInfo
	IsBuyer  bool
	IsSeller bool
}

type OrderService interface {
	Purchase(ctx context.Context, actor model.Actor, listingID uint64) (*model.Order, error)
	Cancel(ctx context.Context, actor model.Actor, orderID uint64, reason string) (*model.Order, error)
	ConfirmPayment(ctx context.Context, actor model.Actor, orderID uint64) (*model.Order, error)
	ConfirmReceived(ctx context.Context, actor model.Actor, orderID uint64) (*model.Order, error)
	GetDetail(ctx context.Context, actor model.Actor, orderID uint64) (*OrderDetail, error)
	ListMine(ctx context.Context, actor model.Actor) ([]model.Order, error)
}

type orderService struct {
	orders   repository.OrderRepository
	listings repository.ListingRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	locks    *locking.Keyed
	log      *zap.SugaredLogger
	metrics  *metrics.MarketMetrics
}

func NewOrderService(
	orders repository.OrderRepository,
	listings repository.ListingRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	locks *locking.Keyed,
	log *zap.SugaredLogger,
	m *metrics.MarketMetrics,
) OrderService {
	return &orderService{
		orders:   orders,
		listings: listings,
		reviews:  reviews,
		users:    users,
		locks:    locks,
		log:      log,
		metrics:  m,
	}
}

// Purchase reserves a listing for the buyer. The whole read-check-write unit
// holds the listing's lock so two racing buyers cannot both succeed; the
// status flip additionally goes through the rows-affected guard as a
// storage-level backstop.
func (s *orderService) Purchase(ctx context.Context, actor model.Actor, listingID uint64) (*model.Order, error) {
	unlock := s.locks.Lock(listingID)
	defer unlock()

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, listingID)
		}
		return nil, err
	}
	if !listing.Purchasable() {
		return nil, fmt.Errorf("%w: listing unavailable", ErrConflict)
	}
	if listing.SellerUID == actor.UID {
		return nil, fmt.Errorf("%w: you cannot buy your own listing", ErrValidation)
	}
	taken, err := s.orders.ExistsNonCancelled(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: listing already has an active order", ErrConflict)
	}

	// Flip the listing first; creating the order after the flip keeps the
	// failure path a pure status revert with no dangling order row.
	prev := listing.Status
	rows, err := s.listings.UpdateStatusIf(ctx, listingID, prev, model.ListingStatusSold)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: listing unavailable", ErrConflict)
	}

	order := &model.Order{
		ListingID: listingID,
		BuyerUID:  actor.UID,
		SellerUID: listing.SellerUID,
		Amount:    listing.Price,
		Status:    model.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if _, revertErr := s.listings.UpdateStatusIf(ctx, listingID, model.ListingStatusSold, prev); revertErr != nil {
			s.log.Errorw("failed to revert listing after order create failure",
				"listing_id", listingID, "error", revertErr)
		}
		return nil, err
	}

	s.metrics.RecordOrderCreated()
	s.log.Infow("order created", "order_id", order.ID, "listing_id", listingID, "buyer", actor.UID, "amount", order.Amount)
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, actor model.Actor, orderID uint64, reason string) (*model.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Listing lock first, order state re-read inside it. The listing lock
	// subsumes per-order exclusivity because a listing has at most one live
	// order.
	unlock := s.locks.Lock(order.ListingID)
	defer unlock()
	order, err = s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(actor.UID) {
		return nil, fmt.Errorf("%w: only the buyer or the seller may cancel", ErrForbidden)
	}
	if !order.Cancellable() {
		return nil, fmt.Errorf("%w: order cannot be cancelled in state %s", ErrInvalidState, order.Status)
	}

	now := time.Now()
	order.Status = model.OrderStatusCancelled
	if order.IsBuyer(actor.UID) {
		order.CancelledBy = model.CancelledByBuyer
	} else {
		order.CancelledBy = model.CancelledBySeller
	}
	order.CancellationReason = reason
	order.CancelledAt = &now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	// Reactivate the listing so it is purchasable again. Canonical APPROVED
	// replaces whatever approved-equivalent spelling the row had before.
	if rows, err := s.listings.UpdateStatusIf(ctx, order.ListingID, model.ListingStatusSold, model.ListingStatusApproved); err != nil {
		return nil, err
	} else if rows == 0 {
		s.log.Warnw("cancelled order but listing was not SOLD", "order_id", orderID, "listing_id", order.ListingID)
	}

	s.metrics.RecordOrderCancelled(string(order.CancelledBy))
	s.log.Infow("order cancelled", "order_id", orderID, "by", order.CancelledBy, "reason", reason)
	return order, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, actor model.Actor, orderID uint64) (*model.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(order.ListingID)
	defer unlock()
	order, err = s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsBuyer(actor.UID) {
		return nil, fmt.Errorf("%w: only the buyer may confirm payment", ErrForbidden)
	}
	if order.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidState, order.Status)
	}

	// Re-confirming simply re-stamps the timestamp.
	now := time.Now()
	order.BuyerPaymentConfirmed = true
	order.BuyerPaymentConfirmedAt = &now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	s.log.Infow("buyer confirmed payment", "order_id", orderID)
	return order, nil
}

func (s *orderService) ConfirmReceived(ctx context.Context, actor model.Actor, orderID uint64) (*model.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(order.ListingID)
	defer unlock()
	order, err = s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsSeller(actor.UID) {
		return nil, fmt.Errorf("%w: only the seller may confirm receipt", ErrForbidden)
	}
	if order.Terminal() {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidState, order.Status)
	}
	if !order.BuyerPaymentConfirmed {
		return nil, fmt.Errorf("%w: buyer has not confirmed payment", ErrPrecondition)
	}

	now := time.Now()
	order.SellerPaymentReceived = true
	order.SellerPaymentReceivedAt = &now
	order.Status = model.OrderStatusClosed
	order.ClosedAt = &now
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	s.metrics.RecordOrderClosed()
	s.log.Infow("order closed", "order_id", orderID)
	return order, nil
}

func (s *orderService) GetDetail(ctx context.Context, actor model.Actor, orderID uint64) (*OrderDetail, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsParty(actor.UID) {
		return nil, fmt.Errorf("%w: not a party of this order", ErrForbidden)
	}

	listing, err := s.listings.FindByID(ctx, order.ListingID)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	s.healReviewRefs(ctx, order)

	detail := &OrderDetail{
		Order:    order,
		Listing:  listing,
		Buyer:    s.partyInfo(ctx, order.BuyerUID),
		Seller:   s.partyInfo(ctx, order.SellerUID),
		IsBuyer:  order.IsBuyer(actor.UID),
		IsSeller: order.IsSeller(actor.UID),
	}
	if listing != nil {
		detail.Payment = listing.Payment
	}
	return detail, nil
}

// healReviewRefs backfills missing review back-references from the review
// store. Idempotent repair, not a new mutation class; failures only log.
func (s *orderService) healReviewRefs(ctx context.Context, order *model.Order) {
	changed := false
	if order.BuyerReviewID == nil {
		if r, err := s.reviews.FindByOrderAndReviewer(ctx, order.ID, order.BuyerUID); err == nil && r != nil {
			order.BuyerReviewID = &r.ID
			changed = true
		}
	}
	if order.SellerReviewID == nil {
		if r, err := s.reviews.FindByOrderAndReviewer(ctx, order.ID, order.SellerUID); err == nil && r != nil {
			order.SellerReviewID = &r.ID
			changed = true
		}
	}
	if changed {
		if err := s.orders.Update(ctx, order); err != nil {
			s.log.Warnw("failed to persist healed review refs", "order_id", order.ID, "error", err)
		}
	}
}

func (s *orderService) partyInfo(ctx context.Context, uid string) PartyInfo {
	info := PartyInfo{UID: uid}
	user, err := s.users.FindByUID(ctx, uid)
	if err != nil || user == nil {
		return info
	}
	info.FullName = user.FullName
	info.Email = user.Email
	info.Phone = user.Phone
	return info
}

func (s *orderService) ListMine(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	return s.orders.ListByParty(ctx, actor.UID)
}

func (s *orderService) findOrder(ctx context.Context, orderID uint64) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return order, nil
}
