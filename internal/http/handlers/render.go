package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "babashop/internal/log"
	"babashop/internal/services"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func reply(c *fiber.Ctx, status int, msg string, data any) error {
	return c.Status(status).JSON(Envelope{Code: status, Message: msg, Data: data})
}

func ok(c *fiber.Ctx, data any) error { return reply(c, fiber.StatusOK, "success", data) }

func created(c *fiber.Ctx, data any) error { return reply(c, fiber.StatusCreated, "created", data) }

// deny records a security event against the status it is about to send.
func deny(c *fiber.Ctx, status int, msg, action string, fields map[string]any) error {
	c.Status(status)
	applog.Security(c, action, fields)
	return reply(c, status, msg, nil)
}

// statusOf maps a service error category to its HTTP status; 0 means unknown.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrBusinessRule), errors.Is(err, services.ErrConflict):
		return fiber.StatusBadRequest
	}
	return 0
}

// fail writes err as an envelope. Server errors are logged under action and
// hidden from the client.
func fail(c *fiber.Ctx, action string, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return reply(c, fe.Code, fe.Message, nil)
	}
	status := statusOf(err)
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	// entries below carry the status being sent
	c.Status(status)
	switch status {
	case fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
		return reply(c, fiber.StatusInternalServerError, "internal server error", nil)
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		applog.Security(c, action+".denied", map[string]any{"reason": services.Message(err)})
	case fiber.StatusUnprocessableEntity:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": services.Message(err)})
	}
	return reply(c, status, services.Message(err), nil)
}

// ErrorHandler is the fiber fallback for errors returned by middleware and
// unmatched routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return fail(c, "server.error", err)
}

// bind decodes the JSON body into dst.
func bind(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return invalidBody
	}
	if err := c.BodyParser(dst); err != nil {
		return invalidBody
	}
	return nil
}

var invalidBody = fiber.NewError(fiber.StatusUnprocessableEntity, "request body must be a JSON object")
