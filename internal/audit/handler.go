package audit

import (
	"fmt"

	"khata-backend/internal/auth"
	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	ProfileID   uint               `json:"profile_id"`
	ProfileName string             `json:"profile_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/audit-logs?entity_type=due_entry&entity_id=1
// Callers see their own trail only.
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileIDVal := c.Locals(auth.CtxProfileIDKey)
		profileID, ok := profileIDVal.(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Profile could not be resolved")
		}

		dbq := database.DB.Model(&models.AuditLog{}).Where("profile_id = ?", profileID)

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if entityIDStr := c.Query("entity_id"); entityIDStr != "" {
			var eid uint
			if _, err := fmt.Sscan(entityIDStr, &eid); err == nil && eid > 0 {
				dbq = dbq.Where("entity_id = ?", eid)
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Audit logs could not be listed")
		}

		resp := make([]LogResponse, 0, len(logs))
		for _, row := range logs {
			resp = append(resp, LogResponse{
				ID:          row.ID,
				CreatedAt:   row.CreatedAt.Format("2006-01-02 15:04:05"),
				ProfileID:   row.ProfileID,
				ProfileName: row.ProfileName,
				EntityType:  row.EntityType,
				EntityID:    row.EntityID,
				Action:      row.Action,
				Description: row.Description,
			})
		}

		return c.JSON(resp)
	}
}
