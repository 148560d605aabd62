package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// jsonError writes the error envelope every API handler uses.
func jsonError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// normalizeWhatsApp strips everything but digits so the stored number can be
// dropped straight into a wa.me URL.
func normalizeWhatsApp(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeSlug lowercases and trims; the model validator rejects anything
// else that is off.
func normalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
