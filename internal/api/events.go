package api

import (
	"strings"

	"eventhub/internal/middleware"
	"eventhub/internal/model"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListEvents supports ?category=&search=&upcoming=true&page=&limit=
func (h *Handler) ListEvents(c *fiber.Ctx) error {
	filter := model.EventFilter{
		Search:   c.Query("search"),
		Upcoming: c.QueryBool("upcoming", false),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", model.DefaultPageLimit),
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" && !strings.EqualFold(raw, "all") {
		category, ok := model.ParseCategory(raw)
		if !ok {
			return respondError(c, model.NewValidationError("unknown category %q", raw))
		}
		filter.Category = category
	}

	page, err := h.services.Events.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *Handler) GetEvent(c *fiber.Ctx) error {
	event, err := h.services.Events.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var req service.EventRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	event, err := h.services.Events.Create(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	var req service.EventUpdateRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	event, err := h.services.Events.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(event)
}

func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	if err := h.services.Events.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Event deleted",
	})
}

func (h *Handler) RegisterForEvent(c *fiber.Ctx) error {
	registration, err := h.services.Registrations.Register(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Registered for event",
		"registration": registration,
	})
}

func (h *Handler) CancelRegistration(c *fiber.Ctx) error {
	registration, err := h.services.Registrations.Cancel(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Registration cancelled",
		"registration": registration,
	})
}

func (h *Handler) RegistrationStatus(c *fiber.Ctx) error {
	status, err := h.services.Registrations.Status(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

func (h *Handler) ListEventRegistrations(c *fiber.Ctx) error {
	registrations, err := h.services.Registrations.ListForEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(registrations)
}

func (h *Handler) ListReviews(c *fiber.Ctx) error {
	summary, err := h.services.Reviews.ListForEvent(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) AddReview(c *fiber.Ctx) error {
	var req service.ReviewRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	review, err := h.services.Reviews.AddReview(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
