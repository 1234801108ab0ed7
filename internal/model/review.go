package model

import "time"

const (
	// ReviewMaxEdits bounds how many times the author may amend a review.
	ReviewMaxEdits = 2
	// ReviewEditWindowDays bounds how long after creation edits are allowed.
	ReviewEditWindowDays = 90
)

type Review struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID     uint64    `gorm:"column:order_id;not null;uniqueIndex:idx_reviews_order_reviewer"`
	ReviewerUID string    `gorm:"column:reviewer_uid;size:64;not null;uniqueIndex:idx_reviews_order_reviewer"`
	RevieweeUID string    `gorm:"column:reviewee_uid;size:64;index;not null"`
	Rating      int       `gorm:"not null"`
	Comment     string    `gorm:"size:1000"`
	EditCount   int       `gorm:"column:edit_count;not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}

// Editable reports whether another edit is allowed at time now.
func (r *Review) Editable(now time.Time) bool {
	if r.EditCount >= ReviewMaxEdits {
		return false
	}
	return now.Sub(r.CreatedAt) <= ReviewEditWindowDays*24*time.Hour
}

func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
