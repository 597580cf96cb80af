package profile

import (
	"strings"

	"khata-backend/internal/auth"
	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	BusinessName *string `json:"business_name"`
	Phone        *string `json:"phone"`
	GSTNumber    *string `json:"gst_number"`
	Address      *string `json:"address"`
}

// GET /api/profile/
// List is scoped to the caller: it only ever returns their own profile.
func ListProfilesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileIDVal := c.Locals(auth.CtxProfileIDKey)
		profileID, ok := profileIDVal.(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Profile could not be resolved")
		}

		var profiles []models.UserProfile
		if err := database.DB.Preload("User").Where("id = ?", profileID).Find(&profiles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Profiles could not be listed")
		}

		resp := make([]auth.ProfilePayload, 0, len(profiles))
		for i := range profiles {
			resp = append(resp, auth.NewProfilePayload(&profiles[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/profile/:id
func GetProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var profile models.UserProfile
		if err := database.DB.Preload("User").First(&profile, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}
		return c.JSON(auth.NewProfilePayload(&profile))
	}
}

// PUT/PATCH /api/profile/:id
// Business fields only; user_type and the identity link are immutable.
func UpdateProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var profile models.UserProfile
		if err := database.DB.Preload("User").First(&profile, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}

		var body UpdateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.BusinessName != nil {
			name := strings.TrimSpace(*body.BusinessName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "business_name cannot be empty")
			}
			profile.BusinessName = name
		}
		if body.Phone != nil {
			phone := strings.TrimSpace(*body.Phone)
			if phone == "" {
				return fiber.NewError(fiber.StatusBadRequest, "phone cannot be empty")
			}
			profile.Phone = phone
		}
		if body.GSTNumber != nil {
			profile.GSTNumber = strings.TrimSpace(*body.GSTNumber)
		}
		if body.Address != nil {
			profile.Address = strings.TrimSpace(*body.Address)
		}

		if err := database.DB.Save(&profile).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Profile could not be updated")
		}

		return c.JSON(auth.NewProfilePayload(&profile))
	}
}

// DELETE /api/profile/:id
func DeleteProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var profile models.UserProfile
		if err := database.DB.First(&profile, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}

		// Dependent rows first, the store is not guaranteed to cascade.
		database.DB.Where("user_profile_id = ?", profile.ID).Delete(&models.RetailerProfile{})
		database.DB.Where("retailer_id = ?", profile.ID).Delete(&models.CreditLimit{})
		database.DB.Where("supplier_id = ? OR retailer_id = ?", profile.ID, profile.ID).Delete(&models.DueEntry{})
		database.DB.Where("transaction_id IN (?)",
			database.DB.Model(&models.Transaction{}).Select("id").
				Where("supplier_id = ? OR retailer_id = ?", profile.ID, profile.ID),
		).Delete(&models.Payment{})
		database.DB.Where("supplier_id = ? OR retailer_id = ?", profile.ID, profile.ID).Delete(&models.Transaction{})

		if err := database.DB.Delete(&profile).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Profile could not be deleted")
		}
		database.DB.Delete(&models.User{}, profile.UserID)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
