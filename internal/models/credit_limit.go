package models

import "time"

// CreditLimit - per-retailer credit ceiling and remaining headroom.
// AvailableLimit is mutated by the underwriting side as dues change; it is
// not derived from the ledger here, and available <= total is expected but
// not enforced.
type CreditLimit struct {
	ID             uint        `gorm:"primaryKey"`
	RetailerID     uint        `gorm:"uniqueIndex;not null"`
	Retailer       UserProfile `gorm:"foreignKey:RetailerID;constraint:OnDelete:CASCADE"`
	TotalLimit     float64     `gorm:"not null"`
	AvailableLimit float64     `gorm:"not null"`
	CreditScore    int         `gorm:"not null"` // 0-100, internal score
	AssessmentDate time.Time
	LastUpdated    time.Time `gorm:"autoUpdateTime"`
}
