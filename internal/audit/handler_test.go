package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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

func seedProfile(t *testing.T, cfg *config.Config, email string) (*models.UserProfile, string) {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, database.DB.Create(&user).Error)
	profile := models.UserProfile{
		UserID:       user.ID,
		UserType:     models.ProfileTypeSupplier,
		BusinessName: "Supplier Co",
		Phone:        "9000000000",
	}
	require.NoError(t, database.DB.Create(&profile).Error)
	profile.User = user
	token, err := auth.GenerateToken(cfg.JWTSecret, &profile)
	require.NoError(t, err)
	return &profile, token
}

func TestWritePersistsSnapshots(t *testing.T) {
	setupTestDB(t)

	Write(Entry{
		ProfileID:   1,
		ProfileName: "Supplier Co",
		EntityType:  "due_entry",
		EntityID:    7,
		Action:      models.AuditActionUpdate,
		Description: "Due marked paid",
		Before:      map[string]any{"status": "pending"},
		After:       map[string]any{"status": "paid"},
	})

	var row models.AuditLog
	require.NoError(t, database.DB.First(&row).Error)
	assert.Equal(t, "due_entry", row.EntityType)
	assert.JSONEq(t, `{"status": "pending"}`, row.BeforeData)
	assert.JSONEq(t, `{"status": "paid"}`, row.AfterData)
}

func TestWriteDefaultsMissingSnapshotsToNull(t *testing.T) {
	setupTestDB(t)

	Write(Entry{
		ProfileID:  1,
		EntityType: "due_entry",
		EntityID:   3,
		Action:     models.AuditActionDelete,
	})

	var row models.AuditLog
	require.NoError(t, database.DB.First(&row).Error)
	assert.Equal(t, "null", row.BeforeData)
	assert.Equal(t, "null", row.AfterData)
}

func TestListAuditLogsScopedAndFiltered(t *testing.T) {
	setupTestDB(t)
	cfg := &config.Config{JWTSecret: "test-secret-key-that-is-long-enough!"}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Unexpected server error"})
		},
	})
	protected := app.Group("/api")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Get("/audit-logs", ListAuditLogsHandler())

	mine, token := seedProfile(t, cfg, "mine@example.com")
	other, _ := seedProfile(t, cfg, "other@example.com")

	Write(Entry{ProfileID: mine.ID, EntityType: "due_entry", EntityID: 1, Action: models.AuditActionCreate})
	Write(Entry{ProfileID: mine.ID, EntityType: "credit_limit", EntityID: 2, Action: models.AuditActionCreate})
	Write(Entry{ProfileID: other.ID, EntityType: "due_entry", EntityID: 9, Action: models.AuditActionCreate})

	get := func(target string) []map[string]any {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	all := get("/api/audit-logs")
	require.Len(t, all, 2)
	for _, row := range all {
		assert.EqualValues(t, mine.ID, row["profile_id"])
	}

	filtered := get("/api/audit-logs?entity_type=credit_limit")
	require.Len(t, filtered, 1)
	assert.EqualValues(t, 2, filtered[0]["entity_id"])

	filtered = get("/api/audit-logs?entity_type=due_entry&entity_id=1")
	require.Len(t, filtered, 1)
	assert.EqualValues(t, 1, filtered[0]["entity_id"])
}
