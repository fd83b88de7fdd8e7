package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "babashop/internal/log"
	"babashop/internal/services"
)

type AdminHandler struct {
	Users *services.UserService
	Inv   *services.InventoryService
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, size := pageQuery(c)
	out, err := h.Users.List(c.UserContext(), page, size)
	if err != nil {
		return fail(c, "admin.users.list.fail", err)
	}
	return ok(c, out)
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Users.Delete(c.UserContext(), id); err != nil {
		return fail(c, "admin.users.delete.fail", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return reply(c, fiber.StatusOK, "user deleted", nil)
}

// GET /api/admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.Inventory(c.UserContext())
	if err != nil {
		return fail(c, "admin.inventory.list.fail", err)
	}
	return ok(c, rows)
}

// PUT /api/admin/inventory
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	var in services.StockUpdate
	if err := bind(c, &in); err != nil {
		return fail(c, "admin.inventory.save.fail", err)
	}
	row, err := h.Inv.SetStock(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.inventory.save.fail", err)
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{
		"product": in.ProductID, "size": in.Size, "color": in.Color, "qty": in.Qty,
	})
	return ok(c, row)
}
