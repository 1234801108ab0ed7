package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nmbt2910/iheartev/internal/locking"
	"github.com/nmbt2910/iheartev/internal/metrics"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
	"go.uber.org/zap"
)

// SubmitListingInput enumerates exactly the fields a seller provides at
// submission. The listing type is fixed at creation.
type SubmitListingInput struct {
	Type               model.ListingType
	Brand              string
	Model              string
	Year               int
	MileageKm          *int
	BatteryCapacityKWh *int
	ConditionLabel     string
	Description        string
	Price              float64
	Payment            model.PaymentInfo
}

// EditListingInput enumerates exactly the mutable fields.
type EditListingInput struct {
	Brand              string
	Model              string
	Year               int
	MileageKm          *int
	BatteryCapacityKWh *int
	ConditionLabel     string
	Description        string
	Price              float64
	Payment            model.PaymentInfo
}

// ModerationSummary is the admin report of non-deleted listings per state,
// plus sold listings regardless of deletion.
type ModerationSummary struct {
	Approved int64
	Pending  int64
	Rejected int64
	Sold     int64
}

type ListingService interface {
	Submit(ctx context.Context, actor model.Actor, in SubmitListingInput) (*model.Listing, error)
	Edit(ctx context.Context, actor model.Actor, id uint64, in EditListingInput) (*model.Listing, error)
	Withdraw(ctx context.Context, actor model.Actor, id uint64) error
	// View applies the visibility rules; viewer is nil for anonymous reads.
	View(ctx context.Context, viewer *model.Actor, id uint64) (*model.Listing, error)
	Search(ctx context.Context, f repository.ListingSearchFilter, limit, offset int) ([]model.Listing, int64, error)

	Approve(ctx context.Context, id uint64) (*model.Listing, error)
	Reject(ctx context.Context, id uint64) (*model.Listing, error)
	ListPending(ctx context.Context) ([]model.Listing, error)
	Verify(ctx context.Context, id uint64) (*model.Listing, error)
	Summary(ctx context.Context) (ModerationSummary, error)
}

type listingService struct {
	listings  repository.ListingRepository
	orders    repository.OrderRepository
	favorites FavoriteService
	locks     *locking.Keyed
	log       *zap.SugaredLogger
	metrics   *metrics.MarketMetrics
}

func NewListingService(
	listings repository.ListingRepository,
	orders repository.OrderRepository,
	favorites FavoriteService,
	locks *locking.Keyed,
	log *zap.SugaredLogger,
	m *metrics.MarketMetrics,
) ListingService {
	return &listingService{
		listings:  listings,
		orders:    orders,
		favorites: favorites,
		locks:     locks,
		log:       log,
		metrics:   m,
	}
}

func validatePayment(p model.PaymentInfo) error {
	switch p.Method {
	case "", model.PaymentMethodCash:
		return nil
	case model.PaymentMethodBankTransfer:
		if !p.Complete() {
			return fmt.Errorf("%w: bank transfer requires account holder, bank code, bank name, account number, amount and transaction memo", ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, p.Method)
	}
}

func (s *listingService) Submit(ctx context.Context, actor model.Actor, in SubmitListingInput) (*model.Listing, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: listing type must be EV or BATTERY", ErrValidation)
	}
	if strings.TrimSpace(in.Brand) == "" || strings.TrimSpace(in.Model) == "" {
		return nil, fmt.Errorf("%w: brand and model are required", ErrValidation)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if err := validatePayment(in.Payment); err != nil {
		return nil, err
	}

	listing := &model.Listing{
		Type:               in.Type,
		Brand:              strings.TrimSpace(in.Brand),
		Model:              strings.TrimSpace(in.Model),
		Year:               in.Year,
		MileageKm:          in.MileageKm,
		BatteryCapacityKWh: in.BatteryCapacityKWh,
		ConditionLabel:     in.ConditionLabel,
		Description:        in.Description,
		Price:              in.Price,
		Status:             model.ListingStatusPending,
		SellerUID:          actor.UID,
		Payment:            in.Payment,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	s.metrics.RecordListingSubmitted()
	s.log.Infow("listing submitted", "listing_id", listing.ID, "seller", actor.UID, "type", listing.Type)
	return listing, nil
}

func (s *listingService) Edit(ctx context.Context, actor model.Actor, id uint64, in EditListingInput) (*model.Listing, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return nil, err
	}
	if listing.Removed() {
		return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
	}
	if listing.SellerUID != actor.UID {
		return nil, fmt.Errorf("%w: only the seller may edit a listing", ErrForbidden)
	}
	if err := validatePayment(in.Payment); err != nil {
		return nil, err
	}

	// One edit after a rejection resubmits for moderation; a second edit in
	// that state is refused outright.
	if model.NormalizeListingStatus(listing.Status) == model.ListingStatusRejected {
		if listing.EditedAfterRejection {
			return nil, fmt.Errorf("%w: listing was already edited once after rejection and cannot be edited again", ErrInvalidState)
		}
		listing.EditedAfterRejection = true
		listing.Status = model.ListingStatusPending
	}

	listing.Brand = strings.TrimSpace(in.Brand)
	listing.Model = strings.TrimSpace(in.Model)
	listing.Year = in.Year
	listing.MileageKm = in.MileageKm
	listing.BatteryCapacityKWh = in.BatteryCapacityKWh
	listing.ConditionLabel = in.ConditionLabel
	listing.Description = in.Description
	listing.Price = in.Price
	listing.Payment = in.Payment

	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *listingService) Withdraw(ctx context.Context, actor model.Actor, id uint64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return err
	}
	if listing.Removed() {
		return fmt.Errorf("%w: listing %d", ErrNotFound, id)
	}
	if listing.SellerUID != actor.UID {
		return fmt.Errorf("%w: only the seller may withdraw a listing", ErrForbidden)
	}
	active, err := s.orders.ExistsActive(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return fmt.Errorf("%w: listing has an active order", ErrConflict)
	}

	now := time.Now()
	listing.Status = model.ListingStatusInactive
	listing.DeletedAt = &now
	if err := s.listings.Update(ctx, listing); err != nil {
		return err
	}
	if err := s.favorites.RemoveForListing(ctx, id); err != nil {
		s.log.Warnw("favorite cascade failed", "listing_id", id, "error", err)
	}
	s.metrics.RecordListingWithdrawn()
	s.log.Infow("listing withdrawn", "listing_id", id, "seller", actor.UID)
	return nil
}

func (s *listingService) View(ctx context.Context, viewer *model.Actor, id uint64) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return nil, err
	}
	if listing.Removed() {
		return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
	}
	// Unmoderated and rejected listings are visible only to the owner and
	// admins; everyone else gets NotFound rather than Forbidden so the
	// listing's existence does not leak.
	switch model.NormalizeListingStatus(listing.Status) {
	case model.ListingStatusPending, model.ListingStatusRejected:
		if viewer != nil && (viewer.UID == listing.SellerUID || viewer.IsAdmin()) {
			return listing, nil
		}
		return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
	default:
		return listing, nil
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClampPageSize normalizes a caller-provided page size; out-of-range values
// fall back to the default. Handlers use the same rule so the page metadata
// they report matches what is actually fetched.
func ClampPageSize(size int) int {
	if size <= 0 || size > maxPageSize {
		return defaultPageSize
	}
	return size
}

func (s *listingService) Search(ctx context.Context, f repository.ListingSearchFilter, limit, offset int) ([]model.Listing, int64, error) {
	limit = ClampPageSize(limit)
	if offset < 0 {
		offset = 0
	}
	return s.listings.Search(ctx, f, limit, offset)
}

func (s *listingService) Approve(ctx context.Context, id uint64) (*model.Listing, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	listing, err := s.moderatable(ctx, id, "approve")
	if err != nil {
		return nil, err
	}
	listing.Status = model.ListingStatusApproved
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	s.metrics.RecordModeration("approved")
	s.log.Infow("listing approved", "listing_id", id)
	return listing, nil
}

func (s *listingService) Reject(ctx context.Context, id uint64) (*model.Listing, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	listing, err := s.moderatable(ctx, id, "reject")
	if err != nil {
		return nil, err
	}

	if listing.EditedAfterRejection {
		// The single amnesty edit is spent: a repeat rejection removes the
		// listing permanently instead of rejecting it a second time.
		now := time.Now()
		listing.Status = model.ListingStatusInactive
		listing.DeletedAt = &now
		if err := s.listings.Update(ctx, listing); err != nil {
			return nil, err
		}
		if err := s.favorites.RemoveForListing(ctx, id); err != nil {
			s.log.Warnw("favorite cascade failed", "listing_id", id, "error", err)
		}
		s.metrics.RecordModeration("removed")
		s.log.Infow("listing removed after repeat rejection", "listing_id", id)
		return listing, nil
	}

	listing.Status = model.ListingStatusRejected
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	s.metrics.RecordModeration("rejected")
	s.log.Infow("listing rejected", "listing_id", id)
	return listing, nil
}

// moderatable loads a listing and checks the shared approve/reject
// preconditions.
func (s *listingService) moderatable(ctx context.Context, id uint64, op string) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return nil, err
	}
	if listing.Removed() {
		return nil, fmt.Errorf("%w: cannot %s a removed listing", ErrInvalidState, op)
	}
	if model.NormalizeListingStatus(listing.Status) != model.ListingStatusPending {
		return nil, fmt.Errorf("%w: can only %s PENDING listings", ErrInvalidState, op)
	}
	return listing, nil
}

func (s *listingService) ListPending(ctx context.Context) ([]model.Listing, error) {
	return s.listings.ListPending(ctx)
}

func (s *listingService) Verify(ctx context.Context, id uint64) (*model.Listing, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
		}
		return nil, err
	}
	if listing.Removed() {
		return nil, fmt.Errorf("%w: listing %d", ErrNotFound, id)
	}
	listing.ConditionLabel = "verified"
	if err := s.listings.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *listingService) Summary(ctx context.Context) (ModerationSummary, error) {
	counts, err := s.listings.CountByStatus(ctx)
	if err != nil {
		return ModerationSummary{}, err
	}
	return ModerationSummary{
		Approved: counts[model.ListingStatusApproved],
		Pending:  counts[model.ListingStatusPending],
		Rejected: counts[model.ListingStatusRejected],
		Sold:     counts[model.ListingStatusSold],
	}, nil
}
