package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/LucasFarias/ZapLink/app/repository"
	"github.com/LucasFarias/ZapLink/internal/pkg/database"
	"github.com/LucasFarias/ZapLink/internal/pkg/links"
	"github.com/LucasFarias/ZapLink/internal/pkg/quota"
	"github.com/LucasFarias/ZapLink/internal/pkg/usercontext"
)

type createLinkRequest struct {
	Title string   `json:"title"`
	URL   string   `json:"url"`
	Price *float64 `json:"price"`
}

type toggleLinkRequest struct {
	IsActive bool `json:"is_active"`
}

// HandleCreateLink adds a link or product button to the user's page. The
// link service enforces the free plan cap; denials come back as 403 with a
// reason the frontend keys its upgrade prompt on.
func HandleCreateLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	svc := links.NewServiceFromDB(database.GetDB())
	link, err := svc.CreateLink(c.Context(), userCtx.UserID, links.CreateLinkInput{
		Title: req.Title,
		URL:   req.URL,
		Price: req.Price,
	})
	if err != nil {
		var qe *links.QuotaError
		if errors.As(err, &qe) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "quota_exceeded",
				"reason":  qe.Reason,
				"message": quotaMessage(qe.Reason),
			})
		}
		if errors.Is(err, links.ErrPageNotFound) {
			return jsonError(c, fiber.StatusNotFound, "page_not_found", "Você ainda não criou sua página")
		}
		return jsonError(c, fiber.StatusBadRequest, "invalid_input", "Não foi possível criar o link: "+err.Error())
	}
	invalidateOwnerPageCache(userCtx.UserID)

	return c.Status(fiber.StatusCreated).JSON(link)
}

// HandleDeleteLink removes one of the user's own links.
func HandleDeleteLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	linkID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "ID de link inválido")
	}

	svc := links.NewServiceFromDB(database.GetDB())
	if err := svc.DeleteLink(c.Context(), userCtx.UserID, uint(linkID)); err != nil {
		if errors.Is(err, links.ErrLinkNotFound) {
			return jsonError(c, fiber.StatusNotFound, "link_not_found", "Link não encontrado")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível remover o link")
	}
	invalidateOwnerPageCache(userCtx.UserID)

	return c.JSON(fiber.Map{"ok": true})
}

// HandleToggleLink shows or hides a link. Hidden links keep counting toward
// the free plan quota.
func HandleToggleLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	linkID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "ID de link inválido")
	}

	var req toggleLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Corpo da requisição inválido")
	}

	svc := links.NewServiceFromDB(database.GetDB())
	if err := svc.ToggleLink(c.Context(), userCtx.UserID, uint(linkID), req.IsActive); err != nil {
		if errors.Is(err, links.ErrLinkNotFound) {
			return jsonError(c, fiber.StatusNotFound, "link_not_found", "Link não encontrado")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível atualizar o link")
	}
	invalidateOwnerPageCache(userCtx.UserID)

	return c.JSON(fiber.Map{"ok": true})
}

func quotaMessage(reason quota.Reason) string {
	switch reason {
	case quota.ReasonPlanExpired:
		return "Seu plano Pro expirou. Renove para continuar adicionando links!"
	default:
		return "Você atingiu o limite de 5 links do plano gratuito. Faça upgrade para o Pro!"
	}
}

// invalidateOwnerPageCache drops the cached public page of the given user,
// if any, so edits show up on the next visit.
func invalidateOwnerPageCache(userID uint) {
	page, err := repository.GetGlobalFactory().GetPageRepository().GetByUserID(userID)
	if err != nil {
		return
	}
	invalidatePublicPageCache(page.Slug)
}
