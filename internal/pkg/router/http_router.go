package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LucasFarias/ZapLink/app/controllers"
	"github.com/LucasFarias/ZapLink/internal/pkg/constants"
	"github.com/LucasFarias/ZapLink/internal/pkg/middleware"
	"github.com/LucasFarias/ZapLink/internal/pkg/oauth"
	"github.com/LucasFarias/ZapLink/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Public bio pages and click redirects
	app.Get(constants.PublicPageRoute+"/:slug", controllers.HandlePublicPage)
	app.Get(constants.LinkRedirectRoute+"/:code", controllers.HandleLinkRedirect)

	// Social OAuth
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)
}
