package handlers

import (
	"github.com/gofiber/fiber/v2"

	"babashop/internal/services"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /api/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.GetCart(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return ok(c, cv)
}

// POST /api/cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in services.AddItemInput
	if err := bind(c, &in); err != nil {
		return fail(c, "cart.add", err)
	}
	cv, err := h.Cart.AddItem(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	return created(c, cv)
}

// DELETE /api/cart/items/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	cv, err := h.Cart.RemoveItem(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	return ok(c, cv)
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), currentUser(c).ID); err != nil {
		return fail(c, "cart.clear", err)
	}
	return reply(c, fiber.StatusOK, "cart cleared", nil)
}
