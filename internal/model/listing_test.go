package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeListingStatus(t *testing.T) {
	assert.Equal(t, ListingStatusApproved, NormalizeListingStatus(ListingStatusLegacyActive))
	for _, s := range []ListingStatus{
		ListingStatusPending,
		ListingStatusApproved,
		ListingStatusRejected,
		ListingStatusSold,
		ListingStatusInactive,
	} {
		assert.Equal(t, s, NormalizeListingStatus(s))
	}
}

func TestListingVisibilityPredicates(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		listing Listing
		visible bool
	}{
		{"approved", Listing{Status: ListingStatusApproved}, true},
		{"legacy active", Listing{Status: ListingStatusLegacyActive}, true},
		{"pending", Listing{Status: ListingStatusPending}, false},
		{"rejected", Listing{Status: ListingStatusRejected}, false},
		{"sold", Listing{Status: ListingStatusSold}, false},
		{"approved but deleted", Listing{Status: ListingStatusApproved, DeletedAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, tt.listing.PubliclyVisible())
			assert.Equal(t, tt.visible, tt.listing.Purchasable())
		})
	}
}

func TestPaymentInfoComplete(t *testing.T) {
	amount := 500000.0
	full := PaymentInfo{
		Method:          PaymentMethodBankTransfer,
		AccountHolder:   "Thanh Nguyen",
		BankCode:        "VCB",
		BankName:        "Vietcombank",
		AccountNumber:   "00112233",
		Amount:          &amount,
		TransactionMemo: "listing 42",
	}
	assert.True(t, full.Complete())

	partial := full
	partial.AccountNumber = ""
	assert.False(t, partial.Complete())

	noAmount := full
	noAmount.Amount = nil
	assert.False(t, noAmount.Complete())

	// Cash never needs bank fields.
	assert.True(t, PaymentInfo{Method: PaymentMethodCash}.Complete())
	assert.True(t, PaymentInfo{}.Complete())
}
