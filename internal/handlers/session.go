package handlers

import (
	"ubuhinzi360/server/internal/middleware"
	"ubuhinzi360/server/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// SessionRequest represents sign-in request body
type SessionRequest struct {
	UserID string `json:"userId"`
}

// CreateSession signs in as an existing directory user and sets the session cookie
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	var req SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.UserID == "" {
		return fail(c, fiber.StatusBadRequest, "User ID is required")
	}

	user, found := h.State.User(req.UserID)
	if !found {
		return fail(c, fiber.StatusNotFound, "User not found")
	}

	token, err := utils.GenerateToken(h.JWTSecret, user.ID)
	if err != nil {
		h.logger().Error("failed to generate token", "user", user.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	// Set HTTP-Only Cookie for the session token
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		HTTPOnly: true,
		Secure:   h.SecureCookies,
		SameSite: "Lax",
		MaxAge:   int(utils.SessionTTL.Seconds()),
	})

	return ok(c, fiber.StatusCreated, fiber.Map{
		"user":  user,
		"token": token,
	})
}

// GetMe returns the signed-in user with the profile link
func (h *Handler) GetMe(c *fiber.Ctx) error {
	user, found := h.State.User(middleware.GetUserID(c))
	if !found {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"user":        user,
		"profileLink": utils.ProfileLink(user.ProfileLinkToken),
	})
}

// Logout clears the session cookie
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		HTTPOnly: true,
		Secure:   h.SecureCookies,
		SameSite: "Lax",
		MaxAge:   -1,
	})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}
