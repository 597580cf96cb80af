package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog - one row per ledger mutation (dues, transactions, payments,
// credit limits). Before/after snapshots are stored as JSON strings.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Acting profile (denormalized name so logs survive profile deletion)
	ProfileID   uint   `gorm:"index" json:"profile_id"`
	ProfileName string `gorm:"size:100" json:"profile_name"`

	// Target entity (e.g. "due_entry", "transaction", "payment", "credit_limit")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData string `json:"before_data"`
	AfterData  string `json:"after_data"`
}
