package model

import "time"

// User is a read-only collaborator: registration and authentication live
// outside this service. Rows exist so order detail can denormalize buyer and
// seller contact info.
type User struct {
	UID       string    `gorm:"primaryKey;size:64"`
	FullName  string    `gorm:"size:120"`
	Email     string    `gorm:"size:190"`
	Phone     string    `gorm:"size:32"`
	Role      Role      `gorm:"size:16;not null;default:USER"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
