package handlers

import (
	"github.com/gofiber/fiber/v2"

	"babashop/internal/domain"
	applog "babashop/internal/log"
	"babashop/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email       string         `json:"email"`
	OTP         string         `json:"otp"`
	Type        domain.OTPType `json:"type"`
	NewPassword string         `json:"new_password"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.register", err)
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return reply(c, fiber.StatusCreated, "registered, check your email for the verification code", u)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.login", err)
	}
	res, err := h.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		if st := statusOf(err); st != 0 {
			c.Status(st)
			applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		}
		return fail(c, "auth.login", err)
	}
	c.Locals("user_id", res.User.ID)
	applog.Audit(c, "auth.login", nil)
	return ok(c, res)
}

// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var in otpRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.verify", err)
	}
	if err := h.Auth.VerifyOTP(c.UserContext(), in.Email, in.OTP); err != nil {
		return fail(c, "auth.verify", err)
	}
	return reply(c, fiber.StatusOK, "account verified", nil)
}

// POST /api/auth/resend-otp
func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var in otpRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.resend", err)
	}
	if err := h.Auth.ResendOTP(c.UserContext(), in.Email, in.Type); err != nil {
		return fail(c, "auth.resend", err)
	}
	return reply(c, fiber.StatusOK, "a new code has been sent", nil)
}

// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var in otpRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.forgot", err)
	}
	if err := h.Auth.ForgotPassword(c.UserContext(), in.Email); err != nil {
		return fail(c, "auth.forgot", err)
	}
	return reply(c, fiber.StatusOK, "a reset code has been sent", nil)
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var in otpRequest
	if err := bind(c, &in); err != nil {
		return fail(c, "auth.reset", err)
	}
	if err := h.Auth.ResetPassword(c.UserContext(), in.Email, in.OTP, in.NewPassword); err != nil {
		return fail(c, "auth.reset", err)
	}
	applog.Audit(c, "auth.reset", map[string]any{"email": in.Email})
	return reply(c, fiber.StatusOK, "password has been reset", nil)
}
