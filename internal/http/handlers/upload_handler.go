package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "babashop/internal/log"
	"babashop/internal/storage"
)

// maxFilesPerUpload bounds the number of parts accepted in one request.
const maxFilesPerUpload = 10

type UploadHandler struct {
	Store storage.Store
}

// POST /api/upload (multipart field "files")
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return reply(c, fiber.StatusUnprocessableEntity, "expected a multipart form with field \"files\"", nil)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return reply(c, fiber.StatusUnprocessableEntity, "no files uploaded", nil)
	}
	if len(files) > maxFilesPerUpload {
		return reply(c, fiber.StatusUnprocessableEntity, "too many files in one upload", nil)
	}

	out := make([]storage.Object, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return fail(c, "upload.open", err)
		}
		obj, err := h.Store.Put(c.UserContext(), fh.Filename, f)
		f.Close()
		if err != nil {
			// keep the batch all-or-nothing
			for _, done := range out {
				_ = h.Store.Delete(c.UserContext(), done.ID)
			}
			return h.storageFail(c, "upload.put", err)
		}
		out = append(out, obj)
	}
	applog.Audit(c, "admin.upload", map[string]any{"count": len(out)})
	return created(c, out)
}

// GET /api/upload/:id
func (h *UploadHandler) Stat(c *fiber.Ctx) error {
	obj, err := h.Store.Stat(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.storageFail(c, "upload.stat", err)
	}
	return ok(c, obj)
}

// DELETE /api/upload/:id
func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Store.Delete(c.UserContext(), id); err != nil {
		return h.storageFail(c, "upload.delete", err)
	}
	applog.Audit(c, "admin.upload.delete", map[string]any{"id": id})
	return reply(c, fiber.StatusOK, "file deleted", nil)
}

func (h *UploadHandler) storageFail(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return reply(c, fiber.StatusNotFound, "file not found", nil)
	case errors.Is(err, storage.ErrUnsupportedType):
		return deny(c, fiber.StatusUnprocessableEntity, err.Error(), "upload.type.block", nil)
	case errors.Is(err, storage.ErrTooLarge):
		return reply(c, fiber.StatusRequestEntityTooLarge, err.Error(), nil)
	}
	return fail(c, action, err)
}
