package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "babashop/internal/log"
	"babashop/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, err := productFilter(c)
	if err != nil {
		return fail(c, "product.list", err)
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), f)
	if err != nil {
		return fail(c, "product.list", err)
	}
	return ok(c, page)
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "product.get", err)
	}
	return ok(c, p)
}

// GET /api/products/:id/reviews
func (h *ProductHandler) ListReviews(c *fiber.Ctx) error {
	page, size := pageQuery(c)
	out, err := h.Reviews.ByProduct(c.UserContext(), c.Params("id"), page, size)
	if err != nil {
		return fail(c, "product.reviews", err)
	}
	return ok(c, out)
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := bind(c, &in); err != nil {
		return fail(c, "product.create", err)
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return fail(c, "product.create", err)
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product_id": p.ID})
	return created(c, p)
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := bind(c, &in); err != nil {
		return fail(c, "product.update", err)
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, "product.update", err)
	}
	applog.Audit(c, "admin.product.update", map[string]any{"product_id": p.ID})
	return ok(c, p)
}

// DELETE /api/products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "product.delete", err)
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product_id": id})
	return reply(c, fiber.StatusOK, "product deleted", nil)
}
