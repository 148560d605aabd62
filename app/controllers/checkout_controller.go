package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/LucasFarias/ZapLink/internal/pkg/billing"
	"github.com/LucasFarias/ZapLink/internal/pkg/database"
	"github.com/LucasFarias/ZapLink/internal/pkg/usercontext"
)

// HandleCreateCheckout creates a Mercado Pago checkout preference for the
// Pro upgrade and returns the redirect URL.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := billing.NewServiceFromDB(database.GetDB())
	url, err := svc.CreateCheckout(c.Context(), userCtx.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrAccountNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Faça login para assinar o Pro")
		}
		log.Errorf("checkout creation failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "checkout_failed", "Não foi possível iniciar o pagamento. Tente novamente.")
	}

	return c.JSON(fiber.Map{"url": url})
}
