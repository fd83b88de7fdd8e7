package handlers

import (
	"github.com/gofiber/fiber/v2"

	"babashop/internal/services"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// POST /api/reviews
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := bind(c, &in); err != nil {
		return fail(c, "review.create", err)
	}
	rv, err := h.Reviews.Create(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return fail(c, "review.create", err)
	}
	return created(c, rv)
}

// GET /api/reviews/me
func (h *ReviewHandler) Mine(c *fiber.Ctx) error {
	page, size := pageQuery(c)
	out, err := h.Reviews.Mine(c.UserContext(), currentUser(c).ID, page, size)
	if err != nil {
		return fail(c, "review.mine", err)
	}
	return ok(c, out)
}

// GET /api/reviews/check-eligibility?product_id=
func (h *ReviewHandler) Eligibility(c *fiber.Ctx) error {
	out, err := h.Reviews.Eligibility(c.UserContext(), currentUser(c).ID, c.Query("product_id"))
	if err != nil {
		return fail(c, "review.eligibility", err)
	}
	return ok(c, out)
}

// PUT /api/reviews/:id
func (h *ReviewHandler) Update(c *fiber.Ctx) error {
	var in services.ReviewUpdate
	if err := bind(c, &in); err != nil {
		return fail(c, "review.update", err)
	}
	rv, err := h.Reviews.Update(c.UserContext(), currentUser(c).ID, c.Params("id"), in)
	if err != nil {
		return fail(c, "review.update", err)
	}
	return ok(c, rv)
}

// DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	if err := h.Reviews.Delete(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return fail(c, "review.delete", err)
	}
	return reply(c, fiber.StatusOK, "review deleted", nil)
}
