package handlers

import (
	"strings"

	"ubuhinzi360/server/internal/directory"
	"ubuhinzi360/server/internal/middleware"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// ListUsers returns the public directory, optionally filtered by ?q on name
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	query := strings.ToLower(strings.TrimSpace(c.Query("q")))
	currentID := middleware.GetUserID(c)

	users := []models.UserResponse{}
	for _, u := range h.State.Users() {
		if u.ID == currentID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.Name), query) {
			continue
		}
		users = append(users, u.ToResponse())
	}
	return ok(c, fiber.StatusOK, users)
}

// GetUser returns one public profile
func (h *Handler) GetUser(c *fiber.Ctx) error {
	user, found := h.State.User(c.Params("id"))
	if !found {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	return ok(c, fiber.StatusOK, user.ToResponse())
}

// UpdateProfile edits the current user's name, status or avatar
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var upd directory.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.Directory.UpdateProfile(middleware.GetUserID(c), upd)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, user)
}

// UpdateProfileLink toggles the profile link or changes its expiry
func (h *Handler) UpdateProfileLink(c *fiber.Ctx) error {
	var ls directory.LinkSettings
	if err := c.BodyParser(&ls); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.Directory.UpdateLink(middleware.GetUserID(c), ls)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, linkView(user))
}

// RotateProfileLink issues a fresh profile link
func (h *Handler) RotateProfileLink(c *fiber.Ctx) error {
	user, err := h.Directory.RotateLink(middleware.GetUserID(c))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, linkView(user))
}

func linkView(u *models.User) fiber.Map {
	return fiber.Map{
		"link":      utils.ProfileLink(u.ProfileLinkToken),
		"token":     u.ProfileLinkToken,
		"active":    u.IsLinkActive,
		"expiry":    u.LinkExpiry,
		"createdAt": u.LinkCreatedAt,
	}
}

// GetBlockedUsers lists the users the current user blocked
func (h *Handler) GetBlockedUsers(c *fiber.Ctx) error {
	users, err := h.Directory.BlockedUsers(middleware.GetUserID(c))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, users)
}

// BlockUser blocks another user
func (h *Handler) BlockUser(c *fiber.Ctx) error {
	if err := h.Directory.Block(middleware.GetUserID(c), c.Params("userId")); err != nil {
		return h.fromError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User blocked",
	})
}

// UnblockUser removes a block
func (h *Handler) UnblockUser(c *fiber.Ctx) error {
	if err := h.Directory.Unblock(middleware.GetUserID(c), c.Params("userId")); err != nil {
		return h.fromError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User unblocked",
	})
}
