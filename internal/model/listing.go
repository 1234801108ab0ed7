package model

import "time"

type ListingType string

const (
	ListingTypeEV      ListingType = "EV"
	ListingTypeBattery ListingType = "BATTERY"
)

func (t ListingType) Valid() bool {
	return t == ListingTypeEV || t == ListingTypeBattery
}

type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "PENDING"
	ListingStatusApproved ListingStatus = "APPROVED"
	ListingStatusRejected ListingStatus = "REJECTED"
	ListingStatusSold     ListingStatus = "SOLD"
	ListingStatusInactive ListingStatus = "INACTIVE"

	// ListingStatusLegacyActive appears on rows created before moderation
	// existed and must be treated as APPROVED everywhere.
	ListingStatusLegacyActive ListingStatus = "ACTIVE"
)

// NormalizeListingStatus maps legacy status spellings onto the closed enum.
func NormalizeListingStatus(s ListingStatus) ListingStatus {
	if s == ListingStatusLegacyActive {
		return ListingStatusApproved
	}
	return s
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// PaymentInfo is how the seller wants to be paid. For a bank transfer every
// field must be present together; Complete enforces that.
type PaymentInfo struct {
	Method          PaymentMethod `gorm:"column:payment_method;size:24"`
	AccountHolder   string        `gorm:"column:account_holder;size:120"`
	BankCode        string        `gorm:"column:bank_code;size:20"`
	BankName        string        `gorm:"column:bank_name;size:120"`
	AccountNumber   string        `gorm:"column:account_number;size:40"`
	Amount          *float64      `gorm:"column:payment_amount"`
	TransactionMemo string        `gorm:"column:transaction_memo;size:255"`
}

func (p PaymentInfo) Complete() bool {
	if p.Method != PaymentMethodBankTransfer {
		return true
	}
	return p.AccountHolder != "" &&
		p.BankCode != "" &&
		p.BankName != "" &&
		p.AccountNumber != "" &&
		p.Amount != nil &&
		p.TransactionMemo != ""
}

type Listing struct {
	ID                   uint64        `gorm:"primaryKey;autoIncrement"`
	Type                 ListingType   `gorm:"size:16;not null"`
	Brand                string        `gorm:"size:80;not null"`
	Model                string        `gorm:"size:80;not null"`
	Year                 int           `gorm:"not null"`
	MileageKm            *int          `gorm:"column:mileage_km"`
	BatteryCapacityKWh   *int          `gorm:"column:battery_capacity_kwh"`
	ConditionLabel       string        `gorm:"column:condition_label;size:40"`
	Description          string        `gorm:"size:2000"`
	Price                float64       `gorm:"not null"`
	Status               ListingStatus `gorm:"size:16;index;not null"`
	SellerUID            string        `gorm:"column:seller_uid;size:64;index;not null"`
	EditedAfterRejection bool          `gorm:"column:edited_after_rejection;not null;default:false"`
	Payment              PaymentInfo   `gorm:"embedded"`
	CreatedAt            time.Time     `gorm:"autoCreateTime"`
	UpdatedAt            time.Time     `gorm:"autoUpdateTime"`
	DeletedAt            *time.Time    `gorm:"column:deleted_at;index"`
}

func (Listing) TableName() string {
	return "listings"
}

// Removed reports whether the listing is soft-deleted. A removed listing is
// invisible to every actor, owner and admin included.
func (l *Listing) Removed() bool {
	return l.DeletedAt != nil
}

// PubliclyVisible is the single "shows up in default search" predicate:
// approved-equivalent and not soft-deleted.
func (l *Listing) PubliclyVisible() bool {
	return !l.Removed() && NormalizeListingStatus(l.Status) == ListingStatusApproved
}

// Purchasable reports whether a buy-now may reserve the listing.
func (l *Listing) Purchasable() bool {
	return l.PubliclyVisible()
}
