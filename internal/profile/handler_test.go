package profile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"khata-backend/internal/auth"
	"khata-backend/internal/config"
	"khata-backend/internal/database"
	"khata-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret-key-that-is-long-enough!"}
}

func newTestApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
		},
	})
	api := app.Group("/api")
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Get("/profile/", ListProfilesHandler())
	protected.Get("/profile/:id", GetProfileHandler())
	protected.Put("/profile/:id", UpdateProfileHandler())
	protected.Patch("/profile/:id", UpdateProfileHandler())
	protected.Delete("/profile/:id", DeleteProfileHandler())
	return app
}

func seedProfile(t *testing.T, cfg *config.Config, email string, ptype models.ProfileType, name string) (*models.UserProfile, string) {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", FirstName: "Test"}
	require.NoError(t, database.DB.Create(&user).Error)
	profile := models.UserProfile{
		UserID:       user.ID,
		UserType:     ptype,
		BusinessName: name,
		Phone:        "9000000000",
	}
	require.NoError(t, database.DB.Create(&profile).Error)
	profile.User = user
	token, err := auth.GenerateToken(cfg.JWTSecret, &profile)
	require.NoError(t, err)
	return &profile, token
}

func authedRequest(method, target, token, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestListProfilesReturnsOnlyOwnProfile(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	own, token := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier Co")
	seedProfile(t, cfg, "other@example.com", models.ProfileTypeSupplier, "Other Co")

	resp, err := app.Test(authedRequest(http.MethodGet, "/api/profile/", token, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.EqualValues(t, own.ID, list[0]["id"])
	assert.Equal(t, "Supplier Co", list[0]["business_name"])
}

func TestUpdateProfileBusinessFieldsOnly(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	own, token := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier Co")

	resp, err := app.Test(authedRequest(http.MethodPatch,
		fmt.Sprintf("/api/profile/%d", own.ID), token,
		`{"business_name": "Renamed Co", "address": "12 Market Road", "user_type": "retailer"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var obj map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&obj))
	assert.Equal(t, "Renamed Co", obj["business_name"])
	assert.Equal(t, "12 Market Road", obj["address"])
	// user_type is immutable
	assert.Equal(t, "supplier", obj["user_type"])

	resp, err = app.Test(authedRequest(http.MethodPut,
		fmt.Sprintf("/api/profile/%d", own.ID), token, `{"business_name": "   "}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteProfileRemovesDependents(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	supplier, _ := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier Co")
	shop, token := seedProfile(t, cfg, "r@example.com", models.ProfileTypeRetailer, "Shop One")

	require.NoError(t, database.DB.Create(&models.RetailerProfile{
		UserProfileID: shop.ID, PANNumber: "ABCDE1234F", BusinessType: "grocery",
		ShopOwnership: models.ShopOwned,
	}).Error)
	require.NoError(t, database.DB.Create(&models.CreditLimit{
		RetailerID: shop.ID, TotalLimit: 10000, AvailableLimit: 10000, CreditScore: 50,
	}).Error)
	require.NoError(t, database.DB.Create(&models.DueEntry{
		SupplierID: supplier.ID, RetailerID: shop.ID, Amount: 100,
		PurchaseDate: time.Now(), DueDate: time.Now(), Status: models.DueStatusPending,
	}).Error)
	tx := models.Transaction{
		SupplierID: supplier.ID, RetailerID: shop.ID, Amount: 200,
		Status: models.TransactionStatusPending, DueDate: time.Now(),
	}
	require.NoError(t, database.DB.Create(&tx).Error)
	require.NoError(t, database.DB.Create(&models.Payment{
		TransactionID: tx.ID, Amount: 50, PaymentMethod: "upi", Status: "completed",
	}).Error)

	resp, err := app.Test(authedRequest(http.MethodDelete,
		fmt.Sprintf("/api/profile/%d", shop.ID), token, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	for _, probe := range []struct {
		name  string
		model any
	}{
		{"retailer_profiles", &models.RetailerProfile{}},
		{"credit_limits", &models.CreditLimit{}},
		{"due_entries", &models.DueEntry{}},
		{"transactions", &models.Transaction{}},
		{"payments", &models.Payment{}},
	} {
		var count int64
		require.NoError(t, database.DB.Model(probe.model).Count(&count).Error)
		assert.Zero(t, count, probe.name)
	}

	var users int64
	require.NoError(t, database.DB.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)

	resp, err = app.Test(authedRequest(http.MethodGet,
		fmt.Sprintf("/api/profile/%d", shop.ID), token, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
