package dues

import (
	"fmt"
	"strings"
	"time"

	"khata-backend/internal/audit"
	"khata-backend/internal/auth"
	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type CreateDueRequest struct {
	Retailer     uint    `json:"retailer" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Description  string  `json:"description"`
	PurchaseDate string  `json:"purchase_date" validate:"required"`
	DueDate      string  `json:"due_date" validate:"required"`
}

type UpdateDueRequest struct {
	Amount       *float64 `json:"amount"`
	Description  *string  `json:"description"`
	PurchaseDate *string  `json:"purchase_date"`
	DueDate      *string  `json:"due_date"`
}

type UpdateDueStatusRequest struct {
	Status string `json:"status"`
}

type DueEntryResponse struct {
	ID            uint             `json:"id"`
	Supplier      uint             `json:"supplier"`
	Retailer      uint             `json:"retailer"`
	SupplierName  string           `json:"supplier_name"`
	RetailerName  string           `json:"retailer_name"`
	RetailerPhone string           `json:"retailer_phone"`
	Amount        float64          `json:"amount"`
	Description   string           `json:"description"`
	PurchaseDate  string           `json:"purchase_date"`
	DueDate       string           `json:"due_date"`
	Status        models.DueStatus `json:"status"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

func newDueEntryResponse(d *models.DueEntry) DueEntryResponse {
	return DueEntryResponse{
		ID:            d.ID,
		Supplier:      d.SupplierID,
		Retailer:      d.RetailerID,
		SupplierName:  d.Supplier.BusinessName,
		RetailerName:  d.Retailer.BusinessName,
		RetailerPhone: d.Retailer.Phone,
		Amount:        d.Amount,
		Description:   d.Description,
		PurchaseDate:  d.PurchaseDate.Format("2006-01-02"),
		DueDate:       d.DueDate.Format("2006-01-02"),
		Status:        d.Status,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
}

// currentProfile resolves the acting profile from the JWT locals.
func currentProfile(c *fiber.Ctx) (*models.UserProfile, error) {
	profileIDVal := c.Locals(auth.CtxProfileIDKey)
	profileID, ok := profileIDVal.(uint)
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "Profile could not be resolved")
	}

	var profile models.UserProfile
	if err := database.DB.First(&profile, profileID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "Profile could not be resolved")
	}
	return &profile, nil
}

// parseDate parses "YYYY-MM-DD" to UTC midnight so stored dates compare
// exactly against calendar-day boundaries.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// findScopedDue loads a due entry the actor is entitled to see: suppliers
// reach their given dues, retailers their received dues. Everything else
// is a 404, the row does not exist from the actor's point of view.
func findScopedDue(actor *models.UserProfile, id string) (*models.DueEntry, error) {
	dbq := database.DB.Preload("Supplier").Preload("Retailer")
	if actor.UserType == models.ProfileTypeSupplier {
		dbq = dbq.Where("supplier_id = ?", actor.ID)
	} else {
		dbq = dbq.Where("retailer_id = ?", actor.ID)
	}

	var due models.DueEntry
	if err := dbq.First(&due, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Due entry not found")
	}
	return &due, nil
}

// GET /api/dues/
// Role-partitioned: suppliers see dues they gave, retailers dues they owe.
func ListDuesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Supplier").Preload("Retailer")
		if actor.UserType == models.ProfileTypeSupplier {
			dbq = dbq.Where("supplier_id = ?", actor.ID)
		} else {
			dbq = dbq.Where("retailer_id = ?", actor.ID)
		}

		var entries []models.DueEntry
		if err := dbq.Order("created_at desc, id desc").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Due entries could not be listed")
		}

		resp := make([]DueEntryResponse, 0, len(entries))
		for i := range entries {
			resp = append(resp, newDueEntryResponse(&entries[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/dues/
// Supplier-only. The supplier and status fields are server-assigned, any
// values in the payload are ignored.
func CreateDueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		if actor.UserType != models.ProfileTypeSupplier {
			return fiber.NewError(fiber.StatusForbidden, "Only suppliers can create due entries")
		}

		var body CreateDueRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var retailer models.UserProfile
		if err := database.DB.First(&retailer, "id = ? AND user_type = ?",
			body.Retailer, models.ProfileTypeRetailer).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid retailer selected")
		}

		purchaseDate, err := parseDate(body.PurchaseDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "purchase_date must be 'YYYY-MM-DD'")
		}
		dueDate, err := parseDate(body.DueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "due_date must be 'YYYY-MM-DD'")
		}

		due := models.DueEntry{
			SupplierID:   actor.ID,
			RetailerID:   retailer.ID,
			Amount:       body.Amount,
			Description:  strings.TrimSpace(body.Description),
			PurchaseDate: purchaseDate,
			DueDate:      dueDate,
			Status:       models.DueStatusPending,
		}
		if err := database.DB.Create(&due).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Due entry could not be created")
		}

		due.Supplier = *actor
		due.Retailer = retailer

		audit.Write(audit.Entry{
			ProfileID:   actor.ID,
			ProfileName: actor.BusinessName,
			EntityType:  "due_entry",
			EntityID:    due.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Due added: %.2f to %s", due.Amount, retailer.BusinessName),
			After:       newDueEntryResponse(&due),
		})

		return c.Status(fiber.StatusCreated).JSON(newDueEntryResponse(&due))
	}
}

// GET /api/dues/:id
func GetDueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		due, err := findScopedDue(actor, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(newDueEntryResponse(due))
	}
}

// PUT/PATCH /api/dues/:id
// Amount, description and the two dates are mutable. Status and supplier
// stay server-owned.
func UpdateDueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		due, err := findScopedDue(actor, c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdateDueRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := newDueEntryResponse(due)

		if body.Amount != nil {
			if *body.Amount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than 0")
			}
			due.Amount = *body.Amount
		}
		if body.Description != nil {
			due.Description = strings.TrimSpace(*body.Description)
		}
		if body.PurchaseDate != nil {
			d, err := parseDate(*body.PurchaseDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "purchase_date must be 'YYYY-MM-DD'")
			}
			due.PurchaseDate = d
		}
		if body.DueDate != nil {
			d, err := parseDate(*body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "due_date must be 'YYYY-MM-DD'")
			}
			due.DueDate = d
		}

		if err := database.DB.Save(due).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Due entry could not be updated")
		}

		audit.Write(audit.Entry{
			ProfileID:   actor.ID,
			ProfileName: actor.BusinessName,
			EntityType:  "due_entry",
			EntityID:    due.ID,
			Action:      models.AuditActionUpdate,
			Description: "Due updated",
			Before:      before,
			After:       newDueEntryResponse(due),
		})

		return c.JSON(newDueEntryResponse(due))
	}
}

// PATCH /api/dues/:id/status
// The explicit transition a payment event (or collections run) uses to
// mark a due paid or overdue. Supplier side only.
func UpdateDueStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		if actor.UserType != models.ProfileTypeSupplier {
			return fiber.NewError(fiber.StatusForbidden, "Only suppliers can change due status")
		}
		due, err := findScopedDue(actor, c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdateDueStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		status := models.DueStatus(strings.ToLower(strings.TrimSpace(body.Status)))
		if status != models.DueStatusPaid && status != models.DueStatusOverdue && status != models.DueStatusPending {
			return fiber.NewError(fiber.StatusBadRequest, "status must be 'pending', 'paid' or 'overdue'")
		}

		before := newDueEntryResponse(due)
		due.Status = status
		if err := database.DB.Save(due).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Due status could not be updated")
		}

		audit.Write(audit.Entry{
			ProfileID:   actor.ID,
			ProfileName: actor.BusinessName,
			EntityType:  "due_entry",
			EntityID:    due.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Due marked %s", status),
			Before:      before,
			After:       newDueEntryResponse(due),
		})

		return c.JSON(newDueEntryResponse(due))
	}
}

// DELETE /api/dues/:id
func DeleteDueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		due, err := findScopedDue(actor, c.Params("id"))
		if err != nil {
			return err
		}

		before := newDueEntryResponse(due)
		if err := database.DB.Delete(due).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Due entry could not be deleted")
		}

		audit.Write(audit.Entry{
			ProfileID:   actor.ID,
			ProfileName: actor.BusinessName,
			EntityType:  "due_entry",
			EntityID:    due.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Due deleted: %.2f", due.Amount),
			Before:      before,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
