package models

import "time"

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction - supplier→retailer monetary transaction. Kept as its own
// ledger next to DueEntry; the two are not reconciled against each other.
type Transaction struct {
	ID          uint              `gorm:"primaryKey"`
	SupplierID  uint              `gorm:"index;not null"`
	Supplier    UserProfile       `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE"`
	RetailerID  uint              `gorm:"index;not null"`
	Retailer    UserProfile       `gorm:"foreignKey:RetailerID;constraint:OnDelete:CASCADE"`
	Amount      float64           `gorm:"not null"`
	Description string            `gorm:"size:200"`
	Status      TransactionStatus `gorm:"size:10;not null;default:pending;index"`
	DueDate     time.Time         `gorm:"not null"`
	Payments    []Payment         `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Payment - a payment recorded against a Transaction.
type Payment struct {
	ID            uint        `gorm:"primaryKey"`
	TransactionID uint        `gorm:"index;not null"`
	Transaction   Transaction `gorm:"foreignKey:TransactionID"`
	Amount        float64     `gorm:"not null"`
	PaymentDate   time.Time   `gorm:"autoCreateTime"`
	PaymentMethod string      `gorm:"size:50"`
	Status        string      `gorm:"size:10"`
	ReferenceID   string      `gorm:"size:100"`
}
