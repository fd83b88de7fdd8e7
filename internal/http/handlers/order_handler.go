package handlers

import (
	"github.com/gofiber/fiber/v2"

	"babashop/internal/domain"
	applog "babashop/internal/log"
	"babashop/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// GET /api/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	out, err := h.Orders.ListUserOrders(c.UserContext(), currentUser(c).ID, c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, "order.history", err)
	}
	return ok(c, out)
}

// GET /api/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	o, err := h.Orders.Get(c.UserContext(), u, c.Params("id"))
	if err != nil {
		if statusOf(err) == fiber.StatusNotFound {
			c.Status(fiber.StatusNotFound)
			applog.Security(c, "order.view.miss", map[string]any{"order_id": c.Params("id")})
		}
		return fail(c, "order.view", err)
	}
	return ok(c, o)
}

// GET /api/orders/search/all
func (h *OrderHandler) Search(c *fiber.Ctx) error {
	f, err := orderFilter(c)
	if err != nil {
		return fail(c, "order.search", err)
	}
	out, err := h.Orders.Search(c.UserContext(), f)
	if err != nil {
		return fail(c, "order.search", err)
	}
	return ok(c, out)
}

// GET /api/orders/admin/by-user/:user_id
func (h *OrderHandler) ByUser(c *fiber.Ctx) error {
	out, err := h.Orders.ByUser(c.UserContext(), c.Params("user_id"), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, "order.by_user", err)
	}
	return ok(c, out)
}

// GET /api/orders/admin/by-product/:product_id
func (h *OrderHandler) ByProduct(c *fiber.Ctx) error {
	out, err := h.Orders.ByProduct(c.UserContext(), c.Params("product_id"), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return fail(c, "order.by_product", err)
	}
	return ok(c, out)
}

// PUT /api/orders/admin/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := bind(c, &in); err != nil {
		return fail(c, "admin.orders.update", err)
	}
	o, err := h.Orders.UpdateStatus(c.UserContext(), c.Params("id"), in.Status)
	if err != nil {
		return fail(c, "admin.orders.update", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": o.ID, "status": o.Status})
	return ok(c, o)
}
