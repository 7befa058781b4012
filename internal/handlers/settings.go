package handlers

import (
	"ubuhinzi360/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetSettings returns the current user's preferences
func (h *Handler) GetSettings(c *fiber.Ctx) error {
	st, err := h.Directory.Settings(middleware.GetUserID(c))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, st)
}

// UpdateSettings replaces the current user's preferences
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	// Start from the stored values so partial bodies keep the rest
	st, err := h.Directory.Settings(userID)
	if err != nil {
		return h.fromError(c, err)
	}
	if err := c.BodyParser(&st); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	saved, err := h.Directory.UpdateSettings(userID, st)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, saved)
}
