package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/app/repository"
)

// HandleOAuthBegin kicks off the provider flow.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in,
// creating the account on first access.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}
	if u.Email == "" {
		return c.Status(fiber.StatusBadRequest).SendString("OAuth provider returned no email")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	appUser, err := userRepo.GetByEmail(u.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).SendString("account lookup failed")
		}
		// First access: create the account with a placeholder password
		// that can never be used for a password login.
		placeholder := fmt.Sprintf("oauth_%s_%d", u.Provider, time.Now().UnixNano())
		appUser, err = models.CreateUser(firstNonEmpty(u.Name, u.NickName, u.Email), u.Email, placeholder)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("create user failed")
		}
		if err := userRepo.Create(appUser); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("create user failed")
		}
	}
	if !appUser.IsActive() {
		return c.Status(fiber.StatusForbidden).SendString("account disabled")
	}

	if err := createUserSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}
	_ = userRepo.TouchLastLogin(appUser.ID)

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthLogout ends the provider session and redirects home.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	return HandleAuthLogout(c)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
