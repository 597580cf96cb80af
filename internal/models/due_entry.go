package models

import "time"

type DueStatus string

const (
	DueStatusPending DueStatus = "pending"
	DueStatusPaid    DueStatus = "paid"
	DueStatusOverdue DueStatus = "overdue"
)

// DueEntry - one owed amount from a retailer to a supplier. Created by the
// supplier with status "pending"; status is server-owned and only moves via
// the explicit status transition endpoint.
type DueEntry struct {
	ID           uint        `gorm:"primaryKey"`
	SupplierID   uint        `gorm:"index;not null"`
	Supplier     UserProfile `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE"`
	RetailerID   uint        `gorm:"index;not null"`
	Retailer     UserProfile `gorm:"foreignKey:RetailerID;constraint:OnDelete:CASCADE"`
	Amount       float64     `gorm:"not null"`
	Description  string      `gorm:"size:500"`
	PurchaseDate time.Time   `gorm:"not null"`
	DueDate      time.Time   `gorm:"index;not null"`
	Status       DueStatus   `gorm:"size:10;not null;default:pending;index"`
	CreatedAt    time.Time   `gorm:"index"`
	UpdatedAt    time.Time
}
