package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/app/repository"
	"github.com/LucasFarias/ZapLink/internal/pkg/session"
	"github.com/LucasFarias/ZapLink/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a new account and logs it in.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	userRepo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := userRepo.GetByEmail(email); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "Este e-mail já está em uso")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_input", "Dados de cadastro inválidos: "+err.Error())
	}
	if err := userRepo.Create(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível criar a conta")
	}

	if err := createUserSession(c, user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Conta criada, mas o login falhou")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"plan_status": user.PlanStatus,
	})
}

// HandleAuthLogin authenticates with email and password.
// Login failures are intentionally indistinct.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "E-mail ou senha incorretos")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível fazer login")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "E-mail ou senha incorretos")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "account_disabled", "Esta conta está desativada")
	}

	if err := createUserSession(c, user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível iniciar a sessão")
	}
	_ = userRepo.TouchLastLogin(user.ID)

	return c.JSON(fiber.Map{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"plan_status": user.PlanStatus,
	})
}

// HandleAuthLogout destroys the current session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"ok": true})
}

// createUserSession writes the identity keys the user context middleware
// reads on every request. plan_status is cached for display only; the
// entitlement checks always go through the DB.
func createUserSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUserName, user.Name)
	sess.Set("plan_status", user.PlanStatus)
	return sess.Save()
}
