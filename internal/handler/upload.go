package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arunika0/menu/internal/storage"
)

// UploadHandler accepts image uploads for restaurants and menu items.
type UploadHandler struct {
	Files storage.FileStore
}

// Upload stores the multipart field "image" and returns its public URL.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "cannot read image file")
	}
	defer f.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := h.Files.Save(ctx, fh.Filename, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": url})
}
