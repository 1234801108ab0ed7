package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
	"gorm.io/gorm"
)

// In-memory repositories backing the service tests. They hold copies, hand
// out copies, and guard every method with a mutex so the concurrency tests
// exercise the services rather than racy fakes.

type fakeListingRepo struct {
	mu       sync.Mutex
	nextID   uint64
	listings map[uint64]model.Listing
	// orders backs the default search's active-order exclusion, mirroring
	// the real repository's subquery. Nil when a test has no order store.
	orders *fakeOrderRepo
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{nextID: 1, listings: map[uint64]model.Listing{}}
}

func (r *fakeListingRepo) Create(_ context.Context, listing *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.ID = r.nextID
	r.nextID++
	r.listings[listing.ID] = *listing
	return nil
}

func (r *fakeListingRepo) FindByID(_ context.Context, id uint64) (*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := l
	return &cp, nil
}

func (r *fakeListingRepo) Update(_ context.Context, listing *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.listings[listing.ID] = *listing
	return nil
}

func (r *fakeListingRepo) UpdateStatusIf(_ context.Context, id uint64, from, to model.ListingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok || l.Status != from {
		return 0, nil
	}
	l.Status = to
	r.listings[id] = l
	return 1, nil
}

func (r *fakeListingRepo) Search(ctx context.Context, f repository.ListingSearchFilter, limit, offset int) ([]model.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Listing
	for _, l := range r.listings {
		if l.DeletedAt != nil {
			continue
		}
		if f.Status != nil {
			if l.Status != *f.Status {
				continue
			}
		} else {
			if model.NormalizeListingStatus(l.Status) != model.ListingStatusApproved {
				continue
			}
			if r.orders != nil {
				if active, _ := r.orders.ExistsActive(ctx, l.ID); active {
					continue
				}
			}
		}
		if f.Type != nil && l.Type != *f.Type {
			continue
		}
		if f.Brand != "" && !strings.Contains(strings.ToLower(l.Brand), strings.ToLower(f.Brand)) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeListingRepo) ListPending(_ context.Context) ([]model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Listing
	for _, l := range r.listings {
		if l.DeletedAt == nil && l.Status == model.ListingStatusPending {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) CountByStatus(_ context.Context) (map[model.ListingStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[model.ListingStatus]int64{}
	for _, l := range r.listings {
		if l.DeletedAt != nil && l.Status != model.ListingStatusSold {
			continue
		}
		counts[model.NormalizeListingStatus(l.Status)]++
	}
	return counts, nil
}

func (r *fakeListingRepo) get(id uint64) model.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listings[id]
}

func (r *fakeListingRepo) put(l model.Listing) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == 0 {
		l.ID = r.nextID
		r.nextID++
	} else if l.ID >= r.nextID {
		r.nextID = l.ID + 1
	}
	r.listings[l.ID] = l
	return l.ID
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID uint64
	orders map[uint64]model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: map[uint64]model.Order{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = r.nextID
	r.nextID++
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uint64) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := o
	return &cp, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeOrderRepo) ExistsNonCancelled(_ context.Context, listingID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ListingID == listingID && o.Status != model.OrderStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) ExistsActive(_ context.Context, listingID uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ListingID == listingID &&
			o.Status != model.OrderStatusCancelled && o.Status != model.OrderStatusClosed {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) ListByParty(_ context.Context, uid string) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.BuyerUID == uid || o.SellerUID == uid {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) get(id uint64) model.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id]
}

func (r *fakeOrderRepo) put(o model.Order) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == 0 {
		o.ID = r.nextID
		r.nextID++
	} else if o.ID >= r.nextID {
		r.nextID = o.ID + 1
	}
	r.orders[o.ID] = o
	return o.ID
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	nextID  uint64
	reviews map[uint64]model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{nextID: 1, reviews: map[uint64]model.Review{}}
}

func (r *fakeReviewRepo) Create(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the unique (order_id, reviewer_uid) index.
	for _, rv := range r.reviews {
		if rv.OrderID == review.OrderID && rv.ReviewerUID == review.ReviewerUID {
			return gorm.ErrDuplicatedKey
		}
	}
	review.ID = r.nextID
	r.nextID++
	// Mirrors gorm's autoCreateTime on model.Review.CreatedAt.
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	r.reviews[review.ID] = *review
	return nil
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id uint64) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := rv
	return &cp, nil
}

func (r *fakeReviewRepo) Update(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[review.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.reviews[review.ID] = *review
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) FindByOrderAndReviewer(_ context.Context, orderID uint64, reviewerUID string) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.OrderID == orderID && rv.ReviewerUID == reviewerUID {
			cp := rv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) ListByReviewee(_ context.Context, revieweeUID string) ([]model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Review
	for _, rv := range r.reviews {
		if rv.RevieweeUID == revieweeUID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) put(rv model.Review) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rv.ID == 0 {
		rv.ID = r.nextID
		r.nextID++
	} else if rv.ID >= r.nextID {
		r.nextID = rv.ID + 1
	}
	r.reviews[rv.ID] = rv
	return rv.ID
}

type fakeFavoriteRepo struct {
	mu     sync.Mutex
	nextID uint64
	favs   map[uint64]model.Favorite
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{nextID: 1, favs: map[uint64]model.Favorite{}}
}

func (r *fakeFavoriteRepo) Create(_ context.Context, fav *model.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fav.ID = r.nextID
	r.nextID++
	r.favs[fav.ID] = *fav
	return nil
}

func (r *fakeFavoriteRepo) FindByUserAndListing(_ context.Context, userUID string, listingID uint64) (*model.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.favs {
		if f.UserUID == userUID && f.ListingID == listingID {
			cp := f
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFavoriteRepo) DeleteByUserAndListing(_ context.Context, userUID string, listingID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows int64
	for id, f := range r.favs {
		if f.UserUID == userUID && f.ListingID == listingID {
			delete(r.favs, id)
			rows++
		}
	}
	return rows, nil
}

func (r *fakeFavoriteRepo) DeleteByListing(_ context.Context, listingID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, f := range r.favs {
		if f.ListingID == listingID {
			delete(r.favs, id)
		}
	}
	return nil
}

func (r *fakeFavoriteRepo) countForListing(listingID uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.favs {
		if f.ListingID == listingID {
			n++
		}
	}
	return n
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]model.User{}}
}

func (r *fakeUserRepo) FindByUID(_ context.Context, uid string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UID] = *user
	return nil
}
