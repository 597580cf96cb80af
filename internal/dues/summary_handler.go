package dues

import (
	"time"

	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SummaryResponse struct {
	TotalOutstanding    float64 `json:"totalOutstanding"`
	DueToday            float64 `json:"dueToday"`
	OverdueAmount       float64 `json:"overdueAmount"`
	ThisMonthCollection float64 `json:"thisMonthCollection"`
	LastMonthCollection float64 `json:"lastMonthCollection"`
	TotalRetailers      int64   `json:"totalRetailers"`
}

// sumDueAmounts runs a COALESCE'd SUM over the filtered due entries so an
// empty result is 0, not NULL.
func sumDueAmounts(supplierID uint, filter func(*gorm.DB) *gorm.DB) (float64, error) {
	var total float64
	q := database.DB.Model(&models.DueEntry{}).Where("supplier_id = ?", supplierID)
	err := filter(q).Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

// GET /api/dues/summary/
// Point-in-time snapshot for a supplier. "Today" is the current local
// calendar date; month windows are calendar months (day 1 inclusive,
// next day 1 exclusive), never rolling 30-day windows.
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		if actor.UserType != models.ProfileTypeSupplier {
			return fiber.NewError(fiber.StatusForbidden, "Only suppliers can view summary")
		}

		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		lastMonthStart := monthStart.AddDate(0, -1, 0)

		totalOutstanding, err := sumDueAmounts(actor.ID, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.DueStatusPending)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		dueToday, err := sumDueAmounts(actor.ID, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ? AND due_date = ?", models.DueStatusPending, today)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		overdueAmount, err := sumDueAmounts(actor.ID, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ? AND due_date < ?", models.DueStatusPending, today)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		thisMonthCollection, err := sumDueAmounts(actor.ID, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ? AND updated_at >= ?", models.DueStatusPaid, monthStart)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		lastMonthCollection, err := sumDueAmounts(actor.ID, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ? AND updated_at >= ? AND updated_at < ?",
				models.DueStatusPaid, lastMonthStart, monthStart)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		var totalRetailers int64
		if err := database.DB.Model(&models.DueEntry{}).
			Where("supplier_id = ?", actor.ID).
			Distinct("retailer_id").
			Count(&totalRetailers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Summary could not be computed")
		}

		return c.JSON(SummaryResponse{
			TotalOutstanding:    totalOutstanding,
			DueToday:            dueToday,
			OverdueAmount:       overdueAmount,
			ThisMonthCollection: thisMonthCollection,
			LastMonthCollection: lastMonthCollection,
			TotalRetailers:      totalRetailers,
		})
	}
}
