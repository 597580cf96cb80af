package retailer

import (
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

const searchResultCap = 10

type UpsertCreditLimitRequest struct {
	TotalLimit     float64 `json:"total_limit" validate:"gt=0"`
	AvailableLimit float64 `json:"available_limit" validate:"gte=0"`
	CreditScore    int     `json:"credit_score" validate:"gte=0,lte=100"`
}

type CreditLimitResponse struct {
	ID             uint    `json:"id"`
	RetailerID     uint    `json:"retailer"`
	TotalLimit     float64 `json:"total_limit"`
	AvailableLimit float64 `json:"available_limit"`
	CreditScore    int     `json:"credit_score"`
	AssessmentDate string  `json:"assessment_date"`
	LastUpdated    string  `json:"last_updated"`
}

func newCreditLimitResponse(cl *models.CreditLimit) CreditLimitResponse {
	return CreditLimitResponse{
		ID:             cl.ID,
		RetailerID:     cl.RetailerID,
		TotalLimit:     cl.TotalLimit,
		AvailableLimit: cl.AvailableLimit,
		CreditScore:    cl.CreditScore,
		AssessmentDate: cl.AssessmentDate.Format(time.RFC3339),
		LastUpdated:    cl.LastUpdated.Format(time.RFC3339),
	}
}

// GET /api/retailers/
func ListRetailersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var retailers []models.UserProfile
		if err := database.DB.Preload("User").
			Where("user_type = ?", models.ProfileTypeRetailer).
			Find(&retailers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Retailers could not be listed")
		}

		resp := make([]auth.ProfilePayload, 0, len(retailers))
		for i := range retailers {
			resp = append(resp, auth.NewProfilePayload(&retailers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/retailers/:id
func GetRetailerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var retailer models.UserProfile
		if err := database.DB.Preload("User").
			First(&retailer, "id = ? AND user_type = ?", id, models.ProfileTypeRetailer).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Retailer not found")
		}
		return c.JSON(auth.NewProfilePayload(&retailer))
	}
}

// GET /api/retailers/search/?q=...
// Queries shorter than 3 characters return an empty list without touching
// the store; matches are case-insensitive on phone or business name,
// capped at 10.
func SearchRetailersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if len(query) < 3 {
			return c.JSON([]auth.ProfilePayload{})
		}

		pattern := "%" + strings.ToLower(query) + "%"
		var retailers []models.UserProfile
		if err := database.DB.Preload("User").
			Where("user_type = ?", models.ProfileTypeRetailer).
			Where("LOWER(phone) LIKE ? OR LOWER(business_name) LIKE ?", pattern, pattern).
			Limit(searchResultCap).
			Find(&retailers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Search failed")
		}

		resp := make([]auth.ProfilePayload, 0, len(retailers))
		for i := range retailers {
			resp = append(resp, auth.NewProfilePayload(&retailers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/credit-limit/
// A retailer reads their own limit; 404 until an assessment exists.
func GetOwnCreditLimitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileIDVal := c.Locals(auth.CtxProfileIDKey)
		profileID, ok := profileIDVal.(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Profile could not be resolved")
		}

		var limit models.CreditLimit
		if err := database.DB.Where("retailer_id = ?", profileID).First(&limit).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "No credit limit assessed yet")
		}
		return c.JSON(newCreditLimitResponse(&limit))
	}
}

// PUT /api/retailers/:id/credit-limit
// Supplier-side upsert of a retailer's limit. The available limit is owned
// by this caller, it is never recomputed from the dues ledger.
func UpsertCreditLimitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var retailer models.UserProfile
		if err := database.DB.First(&retailer, "id = ? AND user_type = ?", id, models.ProfileTypeRetailer).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Retailer not found")
		}

		var body UpsertCreditLimitRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		actorID, actorName := actorInfo(c)

		var limit models.CreditLimit
		err := database.DB.Where("retailer_id = ?", retailer.ID).First(&limit).Error
		if err != nil {
			limit = models.CreditLimit{
				RetailerID:     retailer.ID,
				TotalLimit:     body.TotalLimit,
				AvailableLimit: body.AvailableLimit,
				CreditScore:    body.CreditScore,
				AssessmentDate: time.Now(),
			}
			if err := database.DB.Create(&limit).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Credit limit could not be created")
			}
			audit.Write(audit.Entry{
				ProfileID:   actorID,
				ProfileName: actorName,
				EntityType:  "credit_limit",
				EntityID:    limit.ID,
				Action:      models.AuditActionCreate,
				Description: "Credit limit assessed",
				After:       newCreditLimitResponse(&limit),
			})
			return c.Status(fiber.StatusCreated).JSON(newCreditLimitResponse(&limit))
		}

		before := newCreditLimitResponse(&limit)
		limit.TotalLimit = body.TotalLimit
		limit.AvailableLimit = body.AvailableLimit
		limit.CreditScore = body.CreditScore
		if err := database.DB.Save(&limit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Credit limit could not be updated")
		}
		audit.Write(audit.Entry{
			ProfileID:   actorID,
			ProfileName: actorName,
			EntityType:  "credit_limit",
			EntityID:    limit.ID,
			Action:      models.AuditActionUpdate,
			Description: "Credit limit updated",
			Before:      before,
			After:       newCreditLimitResponse(&limit),
		})
		return c.JSON(newCreditLimitResponse(&limit))
	}
}

func actorInfo(c *fiber.Ctx) (uint, string) {
	profileIDVal := c.Locals(auth.CtxProfileIDKey)
	profileID, ok := profileIDVal.(uint)
	if !ok {
		return 0, ""
	}
	var p models.UserProfile
	if err := database.DB.First(&p, profileID).Error; err != nil {
		return profileID, ""
	}
	return profileID, p.BusinessName
}
