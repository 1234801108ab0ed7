package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nmbt2910/iheartev/internal/metrics"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
	"go.uber.org/zap"
)

type CreateReviewInput struct {
	OrderID uint64
	Rating  int
	Comment string
}

type EditReviewInput struct {
	Rating  int
	Comment string
}

type ReviewService interface {
	Create(ctx context.Context, actor model.Actor, in CreateReviewInput) (*model.Review, error)
	Edit(ctx context.Context, actor model.Actor, id uint64, in EditReviewInput) (*model.Review, error)
	Delete(ctx context.Context, actor model.Actor, id uint64) error
	Get(ctx context.Context, actor model.Actor, id uint64) (*model.Review, error)
	// ListForReviewee is the public ratings view of a user: every review
	// written about them, newest first.
	ListForReviewee(ctx context.Context, revieweeUID string) ([]model.Review, error)
}

type reviewService struct {
	reviews repository.ReviewRepository
	orders  repository.OrderRepository
	log     *zap.SugaredLogger
	metrics *metrics.MarketMetrics
	now     func() time.Time
}

func NewReviewService(
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	log *zap.SugaredLogger,
	m *metrics.MarketMetrics,
) ReviewService {
	return &reviewService{
		reviews: reviews,
		orders:  orders,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

func (s *reviewService) Create(ctx context.Context, actor model.Actor, in CreateReviewInput) (*model.Review, error) {
	if in.OrderID == 0 {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	if !model.ValidRating(in.Rating) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, in.OrderID)
		}
		return nil, err
	}
	if order.Status != model.OrderStatusClosed {
		return nil, fmt.Errorf("%w: order must be closed before it can be reviewed", ErrInvalidState)
	}
	if !order.IsParty(actor.UID) {
		return nil, fmt.Errorf("%w: only the buyer or the seller may review this order", ErrForbidden)
	}

	existing, err := s.reviews.FindByOrderAndReviewer(ctx, in.OrderID, actor.UID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: you have already reviewed this order", ErrConflict)
	}

	// The reviewee is deterministically the other party.
	reviewee := order.SellerUID
	if order.IsSeller(actor.UID) {
		reviewee = order.BuyerUID
	}

	review := &model.Review{
		OrderID:     in.OrderID,
		ReviewerUID: actor.UID,
		RevieweeUID: reviewee,
		Rating:      in.Rating,
		Comment:     in.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		// Two concurrent creates can both pass the duplicate pre-check; the
		// unique (order, reviewer) index then stops the loser.
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: you have already reviewed this order", ErrConflict)
		}
		return nil, err
	}

	if order.IsBuyer(actor.UID) {
		order.BuyerReviewID = &review.ID
	} else {
		order.SellerReviewID = &review.ID
	}
	if err := s.orders.Update(ctx, order); err != nil {
		s.log.Warnw("failed to write review back-reference", "order_id", order.ID, "review_id", review.ID, "error", err)
	}

	s.metrics.RecordReviewCreated()
	s.log.Infow("review created", "review_id", review.ID, "order_id", in.OrderID, "reviewer", actor.UID)
	return review, nil
}

func (s *reviewService) Edit(ctx context.Context, actor model.Actor, id uint64, in EditReviewInput) (*model.Review, error) {
	review, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !model.ValidRating(in.Rating) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if review.EditCount >= model.ReviewMaxEdits {
		return nil, fmt.Errorf("%w: review was already edited %d times", ErrInvalidState, model.ReviewMaxEdits)
	}
	if !review.Editable(s.now()) {
		return nil, fmt.Errorf("%w: reviews cannot be edited after %d days", ErrInvalidState, model.ReviewEditWindowDays)
	}

	review.Rating = in.Rating
	review.Comment = in.Comment
	review.EditCount++
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	review, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.reviews.Delete(ctx, review.ID)
}

func (s *reviewService) Get(ctx context.Context, actor model.Actor, id uint64) (*model.Review, error) {
	return s.findOwned(ctx, actor, id)
}

func (s *reviewService) ListForReviewee(ctx context.Context, revieweeUID string) ([]model.Review, error) {
	return s.reviews.ListByReviewee(ctx, revieweeUID)
}

func (s *reviewService) findOwned(ctx context.Context, actor model.Actor, id uint64) (*model.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: review %d", ErrNotFound, id)
		}
		return nil, err
	}
	if review.ReviewerUID != actor.UID {
		return nil, fmt.Errorf("%w: only the author may access this review", ErrForbidden)
	}
	return review, nil
}
