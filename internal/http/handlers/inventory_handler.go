package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"babashop/internal/services"
	"babashop/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/products/:id/availability?size=&color=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Params("id"))
	if _, ok := validate.ID(productID); !ok {
		return deny(c, fiber.StatusUnprocessableEntity, "invalid product id", "validation.fail", map[string]any{"field": "product_id"})
	}
	size := c.QueryInt("size", 0)
	if size < 0 {
		return reply(c, fiber.StatusUnprocessableEntity, "size must not be negative", nil)
	}
	color := strings.TrimSpace(c.Query("color"))
	if color != "" {
		if _, ok := validate.Color(color); !ok {
			return deny(c, fiber.StatusUnprocessableEntity, "invalid color", "validation.fail", map[string]any{"field": "color"})
		}
	}

	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID, size, color)
	if err != nil {
		return fail(c, "inventory.check", err)
	}
	return ok(c, avail)
}
