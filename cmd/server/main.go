package main

import (
	"strings"

	"khata-backend/internal/audit"
	"khata-backend/internal/auth"
	"khata-backend/internal/config"
	"khata-backend/internal/database"
	"khata-backend/internal/dues"
	"khata-backend/internal/models"
	"khata-backend/internal/profile"
	"khata-backend/internal/retailer"
	"khata-backend/internal/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logrus.WithError(err).Error("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-CSRFToken",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	// Public
	api.Get("/health/", auth.HealthHandler())
	api.Get("/csrf/", auth.CSRFHandler())
	api.Post("/register/", auth.RegisterHandler(cfg))
	api.Post("/login/", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Post("/logout/", auth.LogoutHandler())
	protected.Get("/auth/me", auth.MeHandler())

	// Accounts
	protected.Get("/profile/", profile.ListProfilesHandler())
	protected.Get("/profile/:id", profile.GetProfileHandler())
	protected.Put("/profile/:id", profile.UpdateProfileHandler())
	protected.Patch("/profile/:id", profile.UpdateProfileHandler())
	protected.Delete("/profile/:id", profile.DeleteProfileHandler())

	// Retailer directory
	protected.Get("/retailers/", retailer.ListRetailersHandler())
	protected.Get("/retailers/search/", retailer.SearchRetailersHandler())
	protected.Get("/retailers/:id", retailer.GetRetailerHandler())

	// Credit limits
	protected.Get("/credit-limit/",
		auth.RequireUserType(models.ProfileTypeRetailer), retailer.GetOwnCreditLimitHandler())
	protected.Put("/retailers/:id/credit-limit",
		auth.RequireUserType(models.ProfileTypeSupplier), retailer.UpsertCreditLimitHandler())

	// Dues ledger
	protected.Get("/dues/", dues.ListDuesHandler())
	protected.Post("/dues/", dues.CreateDueHandler())
	protected.Get("/dues/summary/", dues.SummaryHandler())
	protected.Get("/dues/:id", dues.GetDueHandler())
	protected.Put("/dues/:id", dues.UpdateDueHandler())
	protected.Patch("/dues/:id", dues.UpdateDueHandler())
	protected.Patch("/dues/:id/status", dues.UpdateDueStatusHandler())
	protected.Delete("/dues/:id", dues.DeleteDueHandler())

	// Transaction ledger
	protected.Get("/transactions/", transaction.ListTransactionsHandler())
	protected.Post("/transactions/", transaction.CreateTransactionHandler())
	protected.Get("/transactions/:id", transaction.GetTransactionHandler())
	protected.Post("/transactions/:id/payments", transaction.CreatePaymentHandler())
	protected.Get("/transactions/:id/payments", transaction.ListPaymentsHandler())

	// Audit trail
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	logrus.Infof("server listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logrus.Fatal(err)
	}
}
