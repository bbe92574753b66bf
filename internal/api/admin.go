package api

import (
	"mime"
	"path/filepath"
	"strings"

	"eventhub/internal/model"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.services.Admin.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *Handler) ListAllRegistrations(c *fiber.Ctx) error {
	registrations, err := h.services.Registrations.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(registrations)
}

// ExportRegistrations renders the CSV into the response buffer so a failure
// halfway can still be reported as an error status.
func (h *Handler) ExportRegistrations(c *fiber.Ctx) error {
	var buf strings.Builder
	if err := h.services.Export.WriteRegistrationsCSV(c.UserContext(), &buf); err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=registrations.csv`)
	return c.SendString(buf.String())
}

func (h *Handler) SyncTicketmaster(c *fiber.Ctx) error {
	var req service.SyncRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	report, err := h.services.Sync.Sync(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Ticketmaster sync completed",
		"report":  report,
	})
}

func (h *Handler) UploadBanner(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, model.NewValidationError("file is required"))
	}

	file, err := header.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer file.Close()

	upload, err := h.services.Banners.Upload(c.UserContext(), header.Filename, header.Size, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}

// GetFile serves banners kept in local storage.
func (h *Handler) GetFile(c *fiber.Ctx) error {
	key := strings.TrimPrefix(c.Params("*"), "/")

	content, err := h.services.Banners.Open(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}

	if contentType := mime.TypeByExtension(filepath.Ext(key)); contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")

	// fasthttp closes the stream once the body is written
	return c.SendStream(content)
}
