package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "babashop/internal/log"
	"babashop/internal/services"
)

type UserHandler struct {
	Users *services.UserService
	Auth  *services.AuthService
}

// GET /api/users/profile
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	p, err := h.Users.Profile(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "user.profile", err)
	}
	return ok(c, p)
}

// PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := bind(c, &in); err != nil {
		return fail(c, "user.profile.update", err)
	}
	p, err := h.Users.UpdateProfile(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return fail(c, "user.profile.update", err)
	}
	return ok(c, p)
}

// POST /api/users/change-password
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := bind(c, &in); err != nil {
		return fail(c, "user.password", err)
	}
	if err := h.Auth.ChangePassword(c.UserContext(), currentUser(c).ID, in.OldPassword, in.NewPassword); err != nil {
		return fail(c, "user.password", err)
	}
	applog.Audit(c, "user.password.change", nil)
	return reply(c, fiber.StatusOK, "password changed", nil)
}
