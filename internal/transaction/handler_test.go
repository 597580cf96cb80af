package transaction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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
	protected.Get("/transactions/", ListTransactionsHandler())
	protected.Post("/transactions/", CreateTransactionHandler())
	protected.Get("/transactions/:id", GetTransactionHandler())
	protected.Post("/transactions/:id/payments", CreatePaymentHandler())
	protected.Get("/transactions/:id/payments", ListPaymentsHandler())
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

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeObject(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createTransaction(t *testing.T, app *fiber.App, token string, retailerID uint, amount float64) map[string]any {
	t.Helper()
	body := fmt.Sprintf(`{"retailer": %d, "amount": %g, "description": "stock order", "due_date": "2026-10-01"}`, retailerID, amount)
	resp, err := app.Test(authedRequest(http.MethodPost, "/api/transactions/", token, body), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeObject(t, resp)
}

func TestCreateTransactionSupplierOnly(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	supplier, supplierToken := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier")
	shop, retailerToken := seedProfile(t, cfg, "r@example.com", models.ProfileTypeRetailer, "Shop")

	body := fmt.Sprintf(`{"retailer": %d, "amount": 500, "due_date": "2026-10-01"}`, shop.ID)
	resp, err := app.Test(authedRequest(http.MethodPost, "/api/transactions/", retailerToken, body), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	obj := createTransaction(t, app, supplierToken, shop.ID, 500)
	assert.EqualValues(t, supplier.ID, obj["supplier"])
	assert.Equal(t, "pending", obj["status"])
	assert.EqualValues(t, 500, obj["remaining"])
	assert.EqualValues(t, 0, obj["total_paid"])
}

func TestListTransactionsPartitionedByRole(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	_, supplierToken := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier")
	_, otherToken := seedProfile(t, cfg, "s2@example.com", models.ProfileTypeSupplier, "Supplier 2")
	shop, retailerToken := seedProfile(t, cfg, "r@example.com", models.ProfileTypeRetailer, "Shop")

	created := createTransaction(t, app, supplierToken, shop.ID, 500)
	txID := fmt.Sprintf("%v", created["id"])

	resp, err := app.Test(authedRequest(http.MethodGet, "/api/transactions/", retailerToken, ""), -1)
	require.NoError(t, err)
	assert.Len(t, decodeList(t, resp), 1)

	resp, err = app.Test(authedRequest(http.MethodGet, "/api/transactions/", otherToken, ""), -1)
	require.NoError(t, err)
	assert.Empty(t, decodeList(t, resp))

	// detail route is scoped the same way
	resp, err = app.Test(authedRequest(http.MethodGet, "/api/transactions/"+txID, otherToken, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPaymentsAccumulateAndCompleteTransaction(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	_, supplierToken := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier")
	shop, retailerToken := seedProfile(t, cfg, "r@example.com", models.ProfileTypeRetailer, "Shop")

	created := createTransaction(t, app, supplierToken, shop.ID, 300)
	paymentsURL := fmt.Sprintf("/api/transactions/%v/payments", created["id"])
	txURL := fmt.Sprintf("/api/transactions/%v", created["id"])

	resp, err := app.Test(authedRequest(http.MethodPost, paymentsURL, retailerToken,
		`{"amount": 100, "payment_method": "upi", "reference_id": "UPI-1"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(authedRequest(http.MethodGet, txURL, retailerToken, ""), -1)
	require.NoError(t, err)
	obj := decodeObject(t, resp)
	assert.Equal(t, "pending", obj["status"])
	assert.EqualValues(t, 100, obj["total_paid"])
	assert.EqualValues(t, 200, obj["remaining"])

	// overpayment is rejected before anything is written
	resp, err = app.Test(authedRequest(http.MethodPost, paymentsURL, retailerToken,
		`{"amount": 250, "payment_method": "upi"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(authedRequest(http.MethodPost, paymentsURL, retailerToken,
		`{"amount": 200, "payment_method": "cash"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(authedRequest(http.MethodGet, txURL, retailerToken, ""), -1)
	require.NoError(t, err)
	obj = decodeObject(t, resp)
	assert.Equal(t, "completed", obj["status"])
	assert.EqualValues(t, 0, obj["remaining"])

	resp, err = app.Test(authedRequest(http.MethodGet, paymentsURL, retailerToken, ""), -1)
	require.NoError(t, err)
	assert.Len(t, decodeList(t, resp), 2)
}

func TestCreatePaymentOutsidePartitionIsNotFound(t *testing.T) {
	setupTestDB(t)
	cfg := testConfig()
	app := newTestApp(cfg)

	_, supplierToken := seedProfile(t, cfg, "s@example.com", models.ProfileTypeSupplier, "Supplier")
	shop, _ := seedProfile(t, cfg, "r@example.com", models.ProfileTypeRetailer, "Shop")
	_, outsiderToken := seedProfile(t, cfg, "r2@example.com", models.ProfileTypeRetailer, "Other Shop")

	created := createTransaction(t, app, supplierToken, shop.ID, 300)
	paymentsURL := fmt.Sprintf("/api/transactions/%v/payments", created["id"])

	resp, err := app.Test(authedRequest(http.MethodPost, paymentsURL, outsiderToken,
		`{"amount": 100, "payment_method": "upi"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
