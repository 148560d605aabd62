package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/app/repository"
	"github.com/LucasFarias/ZapLink/internal/pkg/cache"
	"github.com/LucasFarias/ZapLink/internal/pkg/constants"
	"github.com/LucasFarias/ZapLink/internal/pkg/metrics/counter"
	"github.com/LucasFarias/ZapLink/internal/pkg/shortener"
	"github.com/LucasFarias/ZapLink/internal/pkg/utils"
)

const (
	publicPageCachePrefix = "public_page:"
	publicPageCacheTTL    = 60 * time.Second
)

type publicLink struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
}

type publicProduct struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	WhatsAppURL string  `json:"whatsapp_url"`
	ShortURL    string  `json:"short_url"`
}

type publicPageResponse struct {
	PageID      uint            `json:"page_id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	AvatarURL   string          `json:"avatar_url"`
	WhatsAppURL string          `json:"whatsapp_url"`
	TotalViews  uint64          `json:"total_views"`
	Links       []publicLink    `json:"links"`
	Products    []publicProduct `json:"products"`
}

// HandlePublicPage serves a bio page by slug. The rendered payload is cached
// in Redis for a short window; views are buffered in Redis counters and
// flushed to the pages table in batches, so a cache hit costs no DB work.
func HandlePublicPage(c *fiber.Ctx) error {
	slug := normalizeSlug(c.Params("slug"))

	cacheKey := publicPageCachePrefix + slug
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		var resp publicPageResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			if err := counter.AddPageView(resp.PageID); err != nil {
				log.Warnf("view counter failed for page %d: %v", resp.PageID, err)
			}
			return c.JSON(resp)
		}
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	page, err := repos.Page.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "page_not_found", "Página não encontrada")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar a página")
	}

	activeLinks, err := repos.Link.GetActiveByPageID(page.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível carregar os links")
	}

	avatarURL := page.AvatarURL
	if avatarURL == "" {
		if owner, err := repos.User.GetByID(page.UserID); err == nil {
			avatarURL = utils.GetGravatarURL(owner.Email, 200)
		}
	}

	resp := publicPageResponse{
		PageID:      page.ID,
		Slug:        page.Slug,
		Title:       page.Title,
		Description: page.Description,
		AvatarURL:   avatarURL,
		WhatsAppURL: "https://wa.me/" + page.WhatsApp,
		TotalViews:  page.TotalViews,
		Links:       []publicLink{},
		Products:    []publicProduct{},
	}
	for _, l := range activeLinks {
		shortURL := constants.LinkRedirectRoute + "/" + shortener.EncodeID(l.ID)
		switch l.Type() {
		case models.LINK_TYPE_PRODUCT:
			resp.Products = append(resp.Products, publicProduct{
				ID:          l.ID,
				Title:       l.Title,
				Price:       *l.Price,
				WhatsAppURL: productWhatsAppURL(page.WhatsApp, l.Title),
				ShortURL:    shortURL,
			})
		default:
			target := ""
			if l.URL != nil {
				target = *l.URL
			}
			resp.Links = append(resp.Links, publicLink{
				ID:       l.ID,
				Title:    l.Title,
				URL:      target,
				ShortURL: shortURL,
			})
		}
	}

	if payload, err := json.Marshal(resp); err == nil {
		if err := cache.Set(cacheKey, string(payload), publicPageCacheTTL); err != nil {
			log.Warnf("public page cache write failed for %s: %v", slug, err)
		}
	}

	if err := counter.AddPageView(page.ID); err != nil {
		log.Warnf("view counter failed for page %d: %v", page.ID, err)
	}
	return c.JSON(resp)
}

// HandleLinkRedirect counts a click and forwards the visitor. Plain links go
// to their URL; product buttons go to the owner's WhatsApp chat with a
// prefilled message.
func HandleLinkRedirect(c *fiber.Ctx) error {
	linkID, ok := shortener.DecodeID(c.Params("code"))
	if !ok || linkID == 0 {
		return jsonError(c, fiber.StatusNotFound, "link_not_found", "Link não encontrado")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	link, err := repos.Link.GetByID(linkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "link_not_found", "Link não encontrado")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível abrir o link")
	}
	if !link.IsActive {
		return jsonError(c, fiber.StatusNotFound, "link_not_found", "Link não encontrado")
	}

	if err := counter.AddLinkClick(link.ID); err != nil {
		log.Warnf("click counter failed for link %d: %v", link.ID, err)
	}

	if link.Type() == models.LINK_TYPE_PRODUCT {
		page, err := repos.Page.GetByID(link.PageID)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Não foi possível abrir o link")
		}
		return c.Redirect(productWhatsAppURL(page.WhatsApp, link.Title), fiber.StatusFound)
	}
	if link.URL == nil || *link.URL == "" {
		return jsonError(c, fiber.StatusNotFound, "link_not_found", "Link não encontrado")
	}
	return c.Redirect(*link.URL, fiber.StatusFound)
}

func productWhatsAppURL(phone string, title string) string {
	msg := fmt.Sprintf("Olá! Tenho interesse em: %s", title)
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(msg)
}

// invalidatePublicPageCache drops the cached payload for a slug after any
// edit that changes what visitors see.
func invalidatePublicPageCache(slug string) {
	if err := cache.Delete(publicPageCachePrefix + slug); err != nil {
		log.Warnf("public page cache invalidation failed for %s: %v", slug, err)
	}
}
