package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LucasFarias/ZapLink/internal/pkg/billing"
	"github.com/LucasFarias/ZapLink/internal/pkg/database"
)

// HandleMercadoPagoWebhook ingests one payment notification. Mercado Pago
// delivers at least once and retries on non-2xx, so the contract is strict:
// ack with {"received":true} whenever the notification was fully handled,
// even if it changed nothing, and return 5xx only when a retry could
// actually succeed later.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	return handleMercadoPagoWebhook(c, billing.NewServiceFromDB(database.GetDB()))
}

func handleMercadoPagoWebhook(c *fiber.Ctx, svc *billing.Service) error {
	paymentID, err := billing.ExtractPaymentID(c.Body())
	if err != nil {
		// No payment id in either accepted shape. Retrying the same
		// body can never help, so reject it for good.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing payment id"})
	}

	outcome, err := svc.IngestNotification(c.Context(), paymentID)
	if err != nil {
		log.Errorf("webhook ingestion failed for payment %s: %v", paymentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing failed"})
	}

	if outcome == billing.OutcomeApplied {
		log.Infof("payment %s applied", paymentID)
	}
	return c.JSON(fiber.Map{"received": true})
}
