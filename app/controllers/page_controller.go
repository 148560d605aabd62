package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/app/repository"
	"github.com/LucasFarias/ZapLink/internal/pkg/database"
	"github.com/LucasFarias/ZapLink/internal/pkg/entitlements"
	"github.com/LucasFarias/ZapLink/internal/pkg/links"
	"github.com/LucasFarias/ZapLink/internal/pkg/quota"
	"github.com/LucasFarias/ZapLink/internal/pkg/storage"
	"github.com/LucasFarias/ZapLink/internal/pkg/usercontext"
)

type createPageRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	WhatsApp    string `json:"whatsapp"`
	Description string `json:"description"`
}

type updateProfileRequest struct {
	Title       *string `json:"title"`
	WhatsApp    *string `json:"whatsapp"`
	Description *string `json:"description"`
	AvatarURL   *string `json:"avatar_url"`
}

// HandleCreatePage creates the user's bio page. One page per user; the slug
// is fixed at creation.
func HandleCreatePage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createPageRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	pageRepo := repository.GetGlobalFactory().GetPageRepository()
	if _, err := pageRepo.GetByUserID(userCtx.UserID); err == nil {
		return jsonError(c, fiber.StatusConflict, "page_exists", "Você já tem uma página")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível criar a página")
	}

	slug := normalizeSlug(req.Slug)
	taken, err := pageRepo.SlugExists(slug)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível verificar o endereço")
	}
	if taken {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "Este endereço já está em uso")
	}

	page := &models.Page{
		UserID:      userCtx.UserID,
		Slug:        slug,
		Title:       strings.TrimSpace(req.Title),
		WhatsApp:    normalizeWhatsApp(req.WhatsApp),
		Description: strings.TrimSpace(req.Description),
	}
	if err := page.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_input", "Dados da página inválidos: "+err.Error())
	}
	if err := pageRepo.Create(page); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível criar a página")
	}

	return c.Status(fiber.StatusCreated).JSON(page)
}

// HandleUpdateProfile applies partial profile edits. The slug cannot change.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	pageRepo := repository.GetGlobalFactory().GetPageRepository()
	page, err := pageRepo.GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "page_not_found", "Você ainda não criou sua página")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar a página")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.WhatsApp != nil {
		updates["whats_app"] = normalizeWhatsApp(*req.WhatsApp)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if err := pageRepo.UpdateProfile(page.ID, updates); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível salvar as alterações")
	}
	invalidatePublicPageCache(page.Slug)

	updated, err := pageRepo.GetByID(page.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar a página")
	}
	return c.JSON(updated)
}

// HandleDashboard returns everything the dashboard screen needs in one call:
// the page, all links (hidden ones included), the computed entitlement and
// the quota usage.
func HandleDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar a conta")
	}

	ent, err := links.NewServiceFromDB(database.GetDB()).Entitlement(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível calcular o plano")
	}

	history, err := repos.Payment.ListByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar os pagamentos")
	}
	latest, err := repos.Payment.GetLatestApprovedByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar os pagamentos")
	}

	response := fiber.Map{
		"user": fiber.Map{
			"id":          user.ID,
			"name":        user.Name,
			"email":       user.Email,
			"plan_status": user.PlanStatus,
		},
		"entitlement": ent,
		"billing":     billingSummary(user.PlanStatus, latest, history),
		"page":        nil,
	}

	page, err := repos.Page.GetByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(response)
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar a página")
	}

	pageLinks, err := repos.Link.GetAllByPageID(page.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar os links")
	}

	// Authoritative quota count: every row of the page, hidden links
	// included, same as the enforcement path.
	used, err := repos.Link.CountByPageID(page.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar os links")
	}

	var linkLimit interface{}
	if ent != entitlements.Pro {
		linkLimit = quota.MaxFreeLinks
	}
	response["page"] = page
	response["links"] = pageLinks
	response["quota"] = fiber.Map{
		"used":  used,
		"limit": linkLimit,
	}
	return c.JSON(response)
}

// billingSummary assembles the dashboard's billing block: the payment
// history, newest first, plus the date the current Pro window runs out.
// An administrative LIFETIME grant with no payment behind it never expires,
// so pro_until stays null for those accounts.
func billingSummary(planStatus string, latest *models.Payment, history []models.Payment) fiber.Map {
	var proUntil interface{}
	if planStatus == models.PLAN_LIFETIME && latest != nil {
		proUntil = entitlements.ExpiryOf(latest.CreatedAt)
	}
	if history == nil {
		history = []models.Payment{}
	}
	return fiber.Map{
		"payments":  history,
		"pro_until": proUntil,
	}
}

type avatarUploadRequest struct {
	ContentType string `json:"content_type"`
}

// HandleAvatarUpload issues a presigned S3 PUT URL for the user's avatar.
// The client uploads directly and then saves the returned public URL via the
// profile update endpoint.
func HandleAvatarUpload(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req avatarUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	store, err := storage.NewAvatarStorageFromEnv(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Upload de avatar indisponível")
	}
	upload, err := store.PresignAvatarUpload(c.Context(), userCtx.UserID, req.ContentType)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_input", "Formato de imagem não suportado")
	}
	return c.JSON(upload)
}
