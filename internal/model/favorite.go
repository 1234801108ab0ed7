package model

import "time"

type Favorite struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserUID   string    `gorm:"column:user_uid;size:64;not null;uniqueIndex:idx_favorites_user_listing"`
	ListingID uint64    `gorm:"column:listing_id;not null;uniqueIndex:idx_favorites_user_listing;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}
