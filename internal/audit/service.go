package audit

import (
	"encoding/json"

	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type Entry struct {
	ProfileID   uint
	ProfileName string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Write persists one audit row. Audit failures are logged and swallowed,
// they never fail the request that triggered them.
func Write(e Entry) {
	beforeStr := "null"
	afterStr := "null"

	if e.Before != nil {
		if b, err := json.Marshal(e.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if e.After != nil {
		if b, err := json.Marshal(e.After); err == nil {
			afterStr = string(b)
		}
	}

	row := models.AuditLog{
		ProfileID:   e.ProfileID,
		ProfileName: e.ProfileName,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := database.DB.Create(&row).Error; err != nil {
		logrus.WithError(err).Warn("audit log write failed")
	}
}
