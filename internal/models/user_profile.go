package models

import "time"

type ProfileType string

const (
	ProfileTypeSupplier ProfileType = "supplier"
	ProfileTypeRetailer ProfileType = "retailer"
)

// UserProfile - business account, one-to-one with an identity User.
type UserProfile struct {
	ID           uint        `gorm:"primaryKey"`
	UserID       uint        `gorm:"uniqueIndex;not null"`
	User         User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	UserType     ProfileType `gorm:"size:10;not null;index"` // "supplier" / "retailer"
	BusinessName string      `gorm:"size:100;not null"`
	Phone        string      `gorm:"size:15;not null"`
	GSTNumber    string      `gorm:"size:15"`
	Address      string      `gorm:"size:500"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
