package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/internal/pkg/database"
	"github.com/LucasFarias/ZapLink/internal/pkg/session"
	"github.com/LucasFarias/ZapLink/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// This centralizes user session handling and eliminates code duplication.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	name := session.GetSessionValue(c, usercontext.KeyUserName)

	// Plan flag with session-first strategy; the DB is only touched when
	// the session has no cached value yet.
	planStatus := session.GetSessionValue(c, "plan_status")
	if planStatus == "" {
		planStatus = models.PLAN_FREE
		if db := database.GetDB(); db != nil {
			if user, err := models.FindUserByID(db, userID.(uint)); err == nil {
				planStatus = user.PlanStatus
			}
		}
		_ = session.SetSessionValue(c, "plan_status", planStatus)
	}

	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		UserID:     userID.(uint),
		Name:       name,
		IsLoggedIn: true,
		PlanStatus: planStatus,
	})
	c.Locals(usercontext.KeyFromProtected, true)

	return c.Next()
}
