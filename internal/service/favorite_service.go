package service

import (
	"context"
	"fmt"

	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
)

// FavoriteStatus is the answer to "has this user favorited that listing".
type FavoriteStatus struct {
	IsFavorite bool
	FavoriteID *uint64
}

type FavoriteService interface {
	Add(ctx context.Context, actor model.Actor, listingID uint64) error
	Remove(ctx context.Context, actor model.Actor, listingID uint64) error
	Check(ctx context.Context, viewer *model.Actor, listingID uint64) (FavoriteStatus, error)
	// RemoveForListing is the cascade invoked when a listing leaves
	// visibility. Idempotent.
	RemoveForListing(ctx context.Context, listingID uint64) error
}

type favoriteService struct {
	favorites repository.FavoriteRepository
	listings  repository.ListingRepository
}

func NewFavoriteService(favorites repository.FavoriteRepository, listings repository.ListingRepository) FavoriteService {
	return &favoriteService{favorites: favorites, listings: listings}
}

func (s *favoriteService) Add(ctx context.Context, actor model.Actor, listingID uint64) error {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: listing %d", ErrNotFound, listingID)
		}
		return err
	}
	if listing.Removed() {
		return fmt.Errorf("%w: listing %d", ErrNotFound, listingID)
	}

	existing, err := s.favorites.FindByUserAndListing(ctx, actor.UID, listingID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return s.favorites.Create(ctx, &model.Favorite{UserUID: actor.UID, ListingID: listingID})
}

func (s *favoriteService) Remove(ctx context.Context, actor model.Actor, listingID uint64) error {
	rows, err := s.favorites.DeleteByUserAndListing(ctx, actor.UID, listingID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: favorite for listing %d", ErrNotFound, listingID)
	}
	return nil
}

func (s *favoriteService) Check(ctx context.Context, viewer *model.Actor, listingID uint64) (FavoriteStatus, error) {
	if viewer == nil {
		return FavoriteStatus{}, nil
	}
	fav, err := s.favorites.FindByUserAndListing(ctx, viewer.UID, listingID)
	if err != nil {
		return FavoriteStatus{}, err
	}
	if fav == nil {
		return FavoriteStatus{}, nil
	}
	return FavoriteStatus{IsFavorite: true, FavoriteID: &fav.ID}, nil
}

func (s *favoriteService) RemoveForListing(ctx context.Context, listingID uint64) error {
	return s.favorites.DeleteByListing(ctx, listingID)
}
