package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid is reachable only through legacy rows; the payment
	// handshake moves PENDING straight to CLOSED.
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusClosed    OrderStatus = "CLOSED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type CancelParty string

const (
	CancelledByBuyer  CancelParty = "BUYER"
	CancelledBySeller CancelParty = "SELLER"
)

type Order struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement"`
	ListingID uint64      `gorm:"column:listing_id;index;not null"`
	BuyerUID  string      `gorm:"column:buyer_uid;size:64;index;not null"`
	SellerUID string      `gorm:"column:seller_uid;size:64;index;not null"`
	Amount    float64     `gorm:"not null"`
	Status    OrderStatus `gorm:"size:16;index;not null"`

	BuyerPaymentConfirmed   bool       `gorm:"column:buyer_payment_confirmed;not null;default:false"`
	BuyerPaymentConfirmedAt *time.Time `gorm:"column:buyer_payment_confirmed_at"`
	SellerPaymentReceived   bool       `gorm:"column:seller_payment_received;not null;default:false"`
	SellerPaymentReceivedAt *time.Time `gorm:"column:seller_payment_received_at"`

	CancelledBy        CancelParty `gorm:"column:cancelled_by;size:16"`
	CancellationReason string      `gorm:"column:cancellation_reason;size:500"`

	BuyerReviewID  *uint64 `gorm:"column:buyer_review_id"`
	SellerReviewID *uint64 `gorm:"column:seller_review_id"`

	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
	ClosedAt    *time.Time `gorm:"column:closed_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Terminal reports whether the order has reached a final state. Terminal
// orders admit no further mutation of status, amount or handshake flags.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusClosed || o.Status == OrderStatusCancelled
}

// Cancellable: only PENDING and the legacy PAID state may be cancelled.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPaid
}

func (o *Order) IsBuyer(uid string) bool {
	return o.BuyerUID == uid
}

func (o *Order) IsSeller(uid string) bool {
	return o.SellerUID == uid
}

func (o *Order) IsParty(uid string) bool {
	return o.IsBuyer(uid) || o.IsSeller(uid)
}
