package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/LucasFarias/ZapLink/app/controllers"
	"github.com/LucasFarias/ZapLink/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		// Webhook deliveries must never be throttled; Mercado Pago
		// retries on any non-2xx and backs off hard.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/webhooks/mercadopago"
		},
	}))

	// Payment provider webhook (no auth, no CSRF; the controller re-fetches
	// the payment from the provider instead of trusting the body)
	api.Post("/webhooks/mercadopago", controllers.HandleMercadoPagoWebhook)

	// Checkout
	api.Post("/checkout", middleware.RequireAuth, controllers.HandleCreateCheckout)

	// API v1 routes
	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleAuthRegister)
	auth.Post("/login", controllers.HandleAuthLogin)
	auth.Post("/logout", controllers.HandleAuthLogout)

	v1.Get("/dashboard", middleware.RequireAuth, controllers.HandleDashboard)

	pages := v1.Group("/pages", middleware.RequireAuth)
	pages.Post("/", controllers.HandleCreatePage)
	pages.Put("/profile", controllers.HandleUpdateProfile)
	pages.Post("/avatar-upload", controllers.HandleAvatarUpload)

	links := v1.Group("/links", middleware.RequireAuth)
	links.Post("/", controllers.HandleCreateLink)
	links.Delete("/:id", controllers.HandleDeleteLink)
	links.Patch("/:id/toggle", controllers.HandleToggleLink)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
