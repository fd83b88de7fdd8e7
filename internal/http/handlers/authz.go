package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"babashop/internal/domain"
	"babashop/internal/services"
)

// RequireUser resolves the bearer token to a user and stores it in Locals.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			return reply(c, fiber.StatusUnauthorized, "missing bearer token", nil)
		}
		u, err := auth.Authenticate(c.UserContext(), raw)
		if err != nil {
			return fail(c, "auth.token", err)
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || !u.IsAdmin() {
			return deny(c, fiber.StatusForbidden, "admin access required", "access.denied.admin", nil)
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
