package database

import (
	"khata-backend/internal/config"
	"khata-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	logrus.Info("database connected, migration complete")
}

// Migrate runs AutoMigrate for every model. Shared with the test setup so
// test databases get the exact production schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.RetailerProfile{},
		&models.CreditLimit{},
		&models.DueEntry{},
		&models.Transaction{},
		&models.Payment{},
		&models.AuditLog{},
	)
}
