package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"khata-backend/internal/config"
	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type RegisterUserPayload struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegisterRetailerPayload struct {
	PANNumber           string  `json:"pan_number" validate:"required,len=10"`
	AnnualTurnover      float64 `json:"annual_turnover" validate:"gte=0"`
	YearsInBusiness     int     `json:"years_in_business" validate:"gte=0,lte=100"`
	BusinessType        string  `json:"business_type" validate:"required"`
	ShopOwnership       string  `json:"shop_ownership" validate:"required,oneof=owned rented"`
	ExistingBankAccount bool    `json:"existing_bank_account"`
}

type RegisterRequest struct {
	User            RegisterUserPayload      `json:"user" validate:"required"`
	UserType        string                   `json:"user_type" validate:"required"`
	BusinessName    string                   `json:"business_name" validate:"required"`
	Phone           string                   `json:"phone" validate:"required,max=15"`
	GSTNumber       string                   `json:"gst_number" validate:"max=15"`
	Address         string                   `json:"address"`
	RetailerProfile *RegisterRetailerPayload `json:"retailer_profile"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserPayload struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ProfilePayload struct {
	ID           uint               `json:"id"`
	User         UserPayload        `json:"user"`
	UserType     models.ProfileType `json:"user_type"`
	BusinessName string             `json:"business_name"`
	Phone        string             `json:"phone"`
	GSTNumber    string             `json:"gst_number"`
	Address      string             `json:"address"`
	CreatedAt    string             `json:"created_at"`
}

func NewProfilePayload(p *models.UserProfile) ProfilePayload {
	return ProfilePayload{
		ID: p.ID,
		User: UserPayload{
			ID:        p.User.ID,
			Username:  p.User.Email,
			Email:     p.User.Email,
			FirstName: p.User.FirstName,
			LastName:  p.User.LastName,
		},
		UserType:     p.UserType,
		BusinessName: p.BusinessName,
		Phone:        p.Phone,
		GSTNumber:    p.GSTNumber,
		Address:      p.Address,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/register/
// Creates the identity row first, then the profile rows. If anything after
// the identity insert fails, the identity row is deleted again so a failed
// registration never leaves a credential-only account behind.
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.User.Email = strings.TrimSpace(strings.ToLower(body.User.Email))
		body.UserType = strings.ToLower(strings.TrimSpace(body.UserType))

		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.UserType != string(models.ProfileTypeSupplier) && body.UserType != string(models.ProfileTypeRetailer) {
			return fiber.NewError(fiber.StatusBadRequest, "user_type must be 'supplier' or 'retailer'")
		}
		if body.UserType == string(models.ProfileTypeRetailer) {
			if body.RetailerProfile == nil {
				return fiber.NewError(fiber.StatusBadRequest, "retailer_profile is required for retailers")
			}
			if err := validate.Struct(body.RetailerProfile); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.User.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Password could not be hashed")
		}

		user := models.User{
			Email:        body.User.Email,
			PasswordHash: string(hash),
			FirstName:    body.User.FirstName,
			LastName:     body.User.LastName,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "A user with this email already exists")
		}

		// Anything past this point compensates by deleting the identity row.
		rollback := func() {
			database.DB.Delete(&models.User{}, user.ID)
		}

		profile := models.UserProfile{
			UserID:       user.ID,
			UserType:     models.ProfileType(body.UserType),
			BusinessName: strings.TrimSpace(body.BusinessName),
			Phone:        strings.TrimSpace(body.Phone),
			GSTNumber:    strings.TrimSpace(body.GSTNumber),
			Address:      strings.TrimSpace(body.Address),
		}
		if err := database.DB.Create(&profile).Error; err != nil {
			rollback()
			return fiber.NewError(fiber.StatusBadRequest, "Profile could not be created")
		}

		if body.UserType == string(models.ProfileTypeRetailer) {
			rp := body.RetailerProfile
			retailerProfile := models.RetailerProfile{
				UserProfileID:       profile.ID,
				PANNumber:           strings.ToUpper(strings.TrimSpace(rp.PANNumber)),
				AnnualTurnover:      rp.AnnualTurnover,
				YearsInBusiness:     rp.YearsInBusiness,
				BusinessType:        rp.BusinessType,
				ShopOwnership:       models.ShopOwnership(rp.ShopOwnership),
				ExistingBankAccount: rp.ExistingBankAccount,
			}
			if err := database.DB.Create(&retailerProfile).Error; err != nil {
				database.DB.Delete(&models.UserProfile{}, profile.ID)
				rollback()
				return fiber.NewError(fiber.StatusBadRequest, "Retailer profile could not be created")
			}
		}

		profile.User = user
		token, err := GenerateToken(cfg.JWTSecret, &profile)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token could not be generated")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"token":   token,
			"user":    NewProfilePayload(&profile),
			"message": "Registration successful",
		})
	}
}

// POST /api/login/
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
		}

		var profile models.UserProfile
		if err := database.DB.Preload("User").Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid credentials")
		}

		token, err := GenerateToken(cfg.JWTSecret, &profile)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token could not be generated")
		}

		return c.JSON(fiber.Map{
			"token":   token,
			"user":    NewProfilePayload(&profile),
			"message": "Login successful",
		})
	}
}

// POST /api/logout/
// Tokens are stateless, the client drops its copy.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Logged out successfully",
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profileIDVal := c.Locals(CtxProfileIDKey)
		profileID, ok := profileIDVal.(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Profile could not be resolved")
		}

		var profile models.UserProfile
		if err := database.DB.Preload("User").First(&profile, profileID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}

		return c.JSON(NewProfilePayload(&profile))
	}
}

// GET /api/health/
func HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

// GET /api/csrf/
// The SPA client expects a csrftoken cookie it can echo back in a header.
func CSRFHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token could not be generated")
		}
		c.Cookie(&fiber.Cookie{
			Name:     "csrftoken",
			Value:    hex.EncodeToString(buf),
			Expires:  time.Now().Add(7 * 24 * time.Hour),
			SameSite: "Lax",
		})
		return c.JSON(fiber.Map{"detail": "CSRF cookie set"})
	}
}
