package models

import "time"

// User - identity record (credentials only). Business data lives on
// UserProfile; registration deletes this row again if profile creation fails.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	FirstName    string `gorm:"size:100"`
	LastName     string `gorm:"size:100"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
