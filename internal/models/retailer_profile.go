package models

type ShopOwnership string

const (
	ShopOwned  ShopOwnership = "owned"
	ShopRented ShopOwnership = "rented"
)

// RetailerProfile - underwriting attributes, retailer accounts only.
// Scores are externally supplied: bank statement score in [0,100],
// bureau credit score in [300,900].
type RetailerProfile struct {
	ID                  uint          `gorm:"primaryKey"`
	UserProfileID       uint          `gorm:"uniqueIndex;not null"`
	UserProfile         UserProfile   `gorm:"foreignKey:UserProfileID;constraint:OnDelete:CASCADE"`
	PANNumber           string        `gorm:"size:10"`
	AnnualTurnover      float64       `gorm:"not null"`
	YearsInBusiness     int           `gorm:"not null"` // 0-100
	BusinessType        string        `gorm:"size:50"`
	ShopOwnership       ShopOwnership `gorm:"size:20"` // "owned" / "rented"
	ExistingBankAccount bool          `gorm:"default:true"`
	BankStatementScore  *int          // 0-100, unset until assessed
	CreditScore         *int          // 300-900, unset until assessed
}
