package api

import (
	"eventhub/internal/middleware"
	"eventhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) MyRegistrations(c *fiber.Ctx) error {
	registrations, err := h.services.Registrations.ListForUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(registrations)
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.services.Users.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) UpdateUserRole(c *fiber.Ctx) error {
	var req service.RoleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.services.Users.UpdateRole(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.services.Users.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "User deleted",
	})
}
