package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nmbt2910/iheartev/internal/locking"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderFixture struct {
	svc      OrderService
	listings *fakeListingRepo
	orders   *fakeOrderRepo
	reviews  *fakeReviewRepo
	users    *fakeUserRepo
}

func newOrderFixture() *orderFixture {
	listings := newFakeListingRepo()
	orders := newFakeOrderRepo()
	listings.orders = orders
	reviews := newFakeReviewRepo()
	users := newFakeUserRepo()
	svc := NewOrderService(orders, listings, reviews, users, locking.NewKeyed(), zap.NewNop().Sugar(), nil)
	return &orderFixture{svc: svc, listings: listings, orders: orders, reviews: reviews, users: users}
}

func (f *orderFixture) approvedListing() uint64 {
	return f.listings.put(model.Listing{
		SellerUID: seller.UID,
		Status:    model.ListingStatusApproved,
		Price:     500,
	})
}

func TestPurchaseReservesListing(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()

	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, buyer.UID, order.BuyerUID)
	assert.Equal(t, seller.UID, order.SellerUID)
	assert.Equal(t, 500.0, order.Amount)
	assert.Equal(t, model.ListingStatusSold, f.listings.get(id).Status)
}

func TestPurchaseLegacyActiveListing(t *testing.T) {
	f := newOrderFixture()
	id := f.listings.put(model.Listing{
		SellerUID: seller.UID,
		Status:    model.ListingStatusLegacyActive,
		Price:     300,
	})

	_, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)
	assert.Equal(t, model.ListingStatusSold, f.listings.get(id).Status)
}

func TestPurchaseRejections(t *testing.T) {
	f := newOrderFixture()
	pending := f.listings.put(model.Listing{SellerUID: seller.UID, Status: model.ListingStatusPending})
	sold := f.listings.put(model.Listing{SellerUID: seller.UID, Status: model.ListingStatusSold})
	own := f.approvedListing()

	_, err := f.svc.Purchase(context.Background(), buyer, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Purchase(context.Background(), buyer, pending)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Purchase(context.Background(), buyer, sold)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Purchase(context.Background(), seller, own)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConcurrentPurchaseOneWinner(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()

	const buyers = 16
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := model.Actor{UID: fmt.Sprintf("buyer-%d", i), Role: model.RoleUser}
			_, errs[i] = f.svc.Purchase(context.Background(), actor, id)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, f.orders.count())
	assert.Equal(t, model.ListingStatusSold, f.listings.get(id).Status)
}

func TestCancelReactivatesListing(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), buyer, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, model.CancelledByBuyer, cancelled.CancelledBy)
	assert.Equal(t, "changed my mind", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, model.ListingStatusApproved, f.listings.get(id).Status)

	// Purchasable again, by someone else.
	_, err = f.svc.Purchase(context.Background(), model.Actor{UID: "buyer-2"}, id)
	assert.NoError(t, err)
}

func TestCancelBySellerRecordsParty(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), seller, order.ID, "no longer for sale")
	require.NoError(t, err)
	assert.Equal(t, model.CancelledBySeller, cancelled.CancelledBy)
}

func TestCancelForbiddenForOutsider(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), model.Actor{UID: "stranger"}, order.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandshakeClosesOrder(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	// Seller cannot confirm receipt before the buyer confirms payment.
	_, err = f.svc.ConfirmReceived(context.Background(), seller, order.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	paid, err := f.svc.ConfirmPayment(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.BuyerPaymentConfirmed)
	require.NotNil(t, paid.BuyerPaymentConfirmedAt)
	assert.Equal(t, model.OrderStatusPending, paid.Status)

	closed, err := f.svc.ConfirmReceived(context.Background(), seller, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusClosed, closed.Status)
	assert.True(t, closed.SellerPaymentReceived)
	require.NotNil(t, closed.ClosedAt)
}

func TestHandshakeRoleChecks(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), seller, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.ConfirmReceived(context.Background(), buyer, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTerminalOrdersAreImmutable(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmReceived(context.Background(), seller, order.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), buyer, order.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.ConfirmPayment(context.Background(), buyer, order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.ConfirmReceived(context.Background(), seller, order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	// Closing never reactivates the listing.
	assert.Equal(t, model.ListingStatusSold, f.listings.get(id).Status)
}

func TestCancelledOrderStaysCancelled(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), buyer, order.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), buyer, order.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.ConfirmPayment(context.Background(), buyer, order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetDetailPartyOnly(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	_, err = f.svc.GetDetail(context.Background(), model.Actor{UID: "stranger"}, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	detail, err := f.svc.GetDetail(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsBuyer)
	assert.False(t, detail.IsSeller)
	require.NotNil(t, detail.Listing)
	assert.Equal(t, id, detail.Listing.ID)
}

func TestGetDetailDenormalizesParties(t *testing.T) {
	f := newOrderFixture()
	require.NoError(t, f.users.Upsert(context.Background(), &model.User{
		UID: seller.UID, FullName: "Thanh Nguyen", Email: "seller@example.com", Phone: "0901",
	}))
	id := f.approvedListing()
	order, err := f.svc.Purchase(context.Background(), buyer, id)
	require.NoError(t, err)

	detail, err := f.svc.GetDetail(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Thanh Nguyen", detail.Seller.FullName)
	// Unknown buyer renders empty contact info, not an error.
	assert.Equal(t, buyer.UID, detail.Buyer.UID)
	assert.Empty(t, detail.Buyer.FullName)
}

func TestGetDetailHealsReviewRefs(t *testing.T) {
	f := newOrderFixture()
	id := f.approvedListing()
	orderID := f.orders.put(model.Order{
		ListingID: id,
		BuyerUID:  buyer.UID,
		SellerUID: seller.UID,
		Status:    model.OrderStatusClosed,
	})
	reviewID := f.reviews.put(model.Review{
		OrderID:     orderID,
		ReviewerUID: buyer.UID,
		RevieweeUID: seller.UID,
		Rating:      5,
	})

	detail, err := f.svc.GetDetail(context.Background(), seller, orderID)
	require.NoError(t, err)
	require.NotNil(t, detail.Order.BuyerReviewID)
	assert.Equal(t, reviewID, *detail.Order.BuyerReviewID)
	assert.Nil(t, detail.Order.SellerReviewID)

	// The repaired reference is persisted.
	stored := f.orders.get(orderID)
	require.NotNil(t, stored.BuyerReviewID)
	assert.Equal(t, reviewID, *stored.BuyerReviewID)
}

func TestListMineReturnsBothSides(t *testing.T) {
	f := newOrderFixture()
	first := f.approvedListing()
	second := f.listings.put(model.Listing{SellerUID: buyer.UID, Status: model.ListingStatusApproved, Price: 10})

	_, err := f.svc.Purchase(context.Background(), buyer, first)
	require.NoError(t, err)
	_, err = f.svc.Purchase(context.Background(), seller, second)
	require.NoError(t, err)

	mine, err := f.svc.ListMine(context.Background(), buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
