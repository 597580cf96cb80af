package transaction

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

type CreateTransactionRequest struct {
	Retailer    uint    `json:"retailer" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=200"`
	DueDate     string  `json:"due_date" validate:"required"`
}

type CreatePaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required,max=50"`
	ReferenceID   string  `json:"reference_id" validate:"max=100"`
}

type TransactionResponse struct {
	ID           uint                     `json:"id"`
	Supplier     uint                     `json:"supplier"`
	Retailer     uint                     `json:"retailer"`
	SupplierName string                   `json:"supplier_name"`
	RetailerName string                   `json:"retailer_name"`
	Amount       float64                  `json:"amount"`
	Description  string                   `json:"description"`
	Status       models.TransactionStatus `json:"status"`
	DueDate      string                   `json:"due_date"`
	TotalPaid    float64                  `json:"total_paid"`
	Remaining    float64                  `json:"remaining"`
	CreatedAt    string                   `json:"created_at"`
	UpdatedAt    string                   `json:"updated_at"`
}

type PaymentResponse struct {
	ID            uint    `json:"id"`
	TransactionID uint    `json:"transaction"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
	ReferenceID   string  `json:"reference_id"`
}

func newTransactionResponse(tx *models.Transaction) TransactionResponse {
	totalPaid := 0.0
	for _, p := range tx.Payments {
		totalPaid += p.Amount
	}
	return TransactionResponse{
		ID:           tx.ID,
		Supplier:     tx.SupplierID,
		Retailer:     tx.RetailerID,
		SupplierName: tx.Supplier.BusinessName,
		RetailerName: tx.Retailer.BusinessName,
		Amount:       tx.Amount,
		Description:  tx.Description,
		Status:       tx.Status,
		DueDate:      tx.DueDate.Format(time.RFC3339),
		TotalPaid:    totalPaid,
		Remaining:    tx.Amount - totalPaid,
		CreatedAt:    tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    tx.UpdatedAt.Format(time.RFC3339),
	}
}

func newPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate.Format(time.RFC3339),
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		ReferenceID:   p.ReferenceID,
	}
}

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

func findScopedTransaction(actor *models.UserProfile, id string) (*models.Transaction, error) {
	dbq := database.DB.Preload("Supplier").Preload("Retailer").Preload("Payments")
	if actor.UserType == models.ProfileTypeSupplier {
		dbq = dbq.Where("supplier_id = ?", actor.ID)
	} else {
		dbq = dbq.Where("retailer_id = ?", actor.ID)
	}

	var tx models.Transaction
	if err := dbq.First(&tx, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Transaction not found")
	}
	return &tx, nil
}

// GET /api/transactions/
// Partitioned the same way as dues.
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Supplier").Preload("Retailer").Preload("Payments")
		if actor.UserType == models.ProfileTypeSupplier {
			dbq = dbq.Where("supplier_id = ?", actor.ID)
		} else {
			dbq = dbq.Where("retailer_id = ?", actor.ID)
		}

		var transactions []models.Transaction
		if err := dbq.Order("created_at desc, id desc").Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transactions could not be listed")
		}

		resp := make([]TransactionResponse, 0, len(transactions))
		for i := range transactions {
			resp = append(resp, newTransactionResponse(&transactions[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/transactions/
// Supplier-only; status is server-assigned to pending.
func CreateTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		if actor.UserType != models.ProfileTypeSupplier {
			return fiber.NewError(fiber.StatusForbidden, "Only suppliers can create transactions")
		}

		var body CreateTransactionRequest
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

		dueDate, err := time.Parse(time.RFC3339, body.DueDate)
		if err != nil {
			// date-only payloads are accepted too
			dueDate, err = time.Parse("2006-01-02", body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "due_date must be RFC3339 or 'YYYY-MM-DD'")
			}
		}

		tx := models.Transaction{
			SupplierID:  actor.ID,
			RetailerID:  retailer.ID,
			Amount:      body.Amount,
			Description: strings.TrimSpace(body.Description),
			Status:      models.TransactionStatusPending,
			DueDate:     dueDate,
		}
		if err := database.DB.Create(&tx).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Transaction could not be created")
		}

		tx.Supplier = *actor
		tx.Retailer = retailer

		audit.Write(audit.Entry{
			ProfileID:   actor.ID,
			ProfileName: actor.BusinessName,
			EntityType:  "transaction",
			EntityID:    tx.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Transaction added: %.2f to %s", tx.Amount, retailer.BusinessName),
			After:       newTransactionResponse(&tx),
		})

		return c.Status(fiber.StatusCreated).JSON(newTransactionResponse(&tx))
	}
}

// GET /api/transactions/:id
func GetTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		tx, err := findScopedTransaction(actor, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(newTransactionResponse(tx))
	}
}

// POST /api/transactions/:id/payments
// Records a payment against the transaction. Payments cannot exceed the
// transaction amount; the transaction flips to completed once fully paid.
// Payments never touch the DueEntry ledger, the two are independent.
func CreatePaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		tx, err := findScopedTransaction(actor, c.Params("id"))
		if err != nil {
			return err
		}

		var body CreatePaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		totalPaid := 0.0
		for _, p := range tx.Payments {
			totalPaid += p.Amount
		}
		if totalPaid+body.Amount > tx.Amount {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Total payments (%.2f) cannot exceed the transaction amount (%.2f)",
					totalPaid+body.Amount, tx.Amount))
		}

		payment := models.Payment{
			TransactionID: tx.ID,
			Amount:        body.Amount,
			PaymentMethod: strings.TrimSpace(body.PaymentMethod),
			Status:        "completed",
			ReferenceID:   strings.TrimSpace(body.ReferenceID),
		}
		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Payment could not be recorded")
		}

		if totalPaid+body.Amount >= tx.Amount {
			tx.Status = models.TransactionStatusCompleted
			if err := database.DB.Model(tx).Update("status", models.TransactionStatusCompleted).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Transaction status could not be updated")
			}
		}

		audit.Write(audit.Entry{
			ProfileID:   actor.ID,
			ProfileName: actor.BusinessName,
			EntityType:  "payment",
			EntityID:    payment.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Payment recorded: %.2f via %s", payment.Amount, payment.PaymentMethod),
			After:       newPaymentResponse(&payment),
		})

		return c.Status(fiber.StatusCreated).JSON(newPaymentResponse(&payment))
	}
}

// GET /api/transactions/:id/payments
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentProfile(c)
		if err != nil {
			return err
		}
		tx, err := findScopedTransaction(actor, c.Params("id"))
		if err != nil {
			return err
		}

		var payments []models.Payment
		if err := database.DB.Where("transaction_id = ?", tx.ID).
			Order("payment_date desc, id desc").
			Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Payments could not be listed")
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for i := range payments {
			resp = append(resp, newPaymentResponse(&payments[i]))
		}
		return c.JSON(resp)
	}
}
