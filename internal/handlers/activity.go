package handlers

import (
	"ubuhinzi360/server/internal/activity"
	"ubuhinzi360/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetActivity returns the rendered dashboard feed of the current user
func (h *Handler) GetActivity(c *fiber.Ctx) error {
	items, err := activity.Build(h.State, middleware.GetUserID(c))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, activity.Render(items, h.language(c), h.State.Now()))
}
