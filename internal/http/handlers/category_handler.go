package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "babashop/internal/log"
	"babashop/internal/services"
)

// CategoryHandler serves categories and brands; both are plain labels.
type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/categories
func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	page, size := pageQuery(c)
	out, err := h.Catalog.ListCategories(c.UserContext(), strings.TrimSpace(c.Query("keyword")), page, size)
	if err != nil {
		return fail(c, "category.list", err)
	}
	return ok(c, out)
}

// GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	out, err := h.Catalog.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "category.get", err)
	}
	return ok(c, out)
}

// POST /api/categories
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var in services.LabelInput
	if err := bind(c, &in); err != nil {
		return fail(c, "category.create", err)
	}
	out, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "category.create", err)
	}
	applog.Audit(c, "admin.category.create", map[string]any{"category_id": out.ID})
	return created(c, out)
}

// PUT /api/categories/:id
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	var in services.LabelInput
	if err := bind(c, &in); err != nil {
		return fail(c, "category.update", err)
	}
	out, err := h.Catalog.UpdateCategory(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, "category.update", err)
	}
	applog.Audit(c, "admin.category.update", map[string]any{"category_id": out.ID})
	return ok(c, out)
}

// DELETE /api/categories/:id
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return fail(c, "category.delete", err)
	}
	applog.Audit(c, "admin.category.delete", map[string]any{"category_id": id})
	return reply(c, fiber.StatusOK, "category deleted", nil)
}

// GET /api/brands
func (h *CategoryHandler) ListBrands(c *fiber.Ctx) error {
	page, size := pageQuery(c)
	out, err := h.Catalog.ListBrands(c.UserContext(), strings.TrimSpace(c.Query("keyword")), page, size)
	if err != nil {
		return fail(c, "brand.list", err)
	}
	return ok(c, out)
}

// GET /api/brands/:id
func (h *CategoryHandler) GetBrand(c *fiber.Ctx) error {
	out, err := h.Catalog.GetBrand(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "brand.get", err)
	}
	return ok(c, out)
}

// POST /api/brands
func (h *CategoryHandler) CreateBrand(c *fiber.Ctx) error {
	var in services.LabelInput
	if err := bind(c, &in); err != nil {
		return fail(c, "brand.create", err)
	}
	out, err := h.Catalog.CreateBrand(c.UserContext(), in)
	if err != nil {
		return fail(c, "brand.create", err)
	}
	applog.Audit(c, "admin.brand.create", map[string]any{"brand_id": out.ID})
	return created(c, out)
}

// PUT /api/brands/:id
func (h *CategoryHandler) UpdateBrand(c *fiber.Ctx) error {
	var in services.LabelInput
	if err := bind(c, &in); err != nil {
		return fail(c, "brand.update", err)
	}
	out, err := h.Catalog.UpdateBrand(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return fail(c, "brand.update", err)
	}
	applog.Audit(c, "admin.brand.update", map[string]any{"brand_id": out.ID})
	return ok(c, out)
}

// DELETE /api/brands/:id
func (h *CategoryHandler) DeleteBrand(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteBrand(c.UserContext(), id); err != nil {
		return fail(c, "brand.delete", err)
	}
	applog.Audit(c, "admin.brand.delete", map[string]any{"brand_id": id})
	return reply(c, fiber.StatusOK, "brand deleted", nil)
}
