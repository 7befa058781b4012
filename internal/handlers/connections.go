package handlers

import (
	"ubuhinzi360/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// ConnectionRequestBody represents a request to connect by user id
type ConnectionRequestBody struct {
	ToUserID string `json:"toUserId"`
}

// ConnectWithLinkBody represents a request to connect through a profile link
type ConnectWithLinkBody struct {
	Link string `json:"link"`
}

// GetPendingRequests lists the pending requests addressed to the current user
func (h *Handler) GetPendingRequests(c *fiber.Ctx) error {
	reqs, err := h.Connections.PendingRequests(middleware.GetUserID(c))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, reqs)
}

// GetRequestHistory lists the accepted and rejected requests of the current user
func (h *Handler) GetRequestHistory(c *fiber.Ctx) error {
	reqs, err := h.Connections.RequestHistory(middleware.GetUserID(c))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, reqs)
}

// SendConnectionRequest sends a connection request to another user
func (h *Handler) SendConnectionRequest(c *fiber.Ctx) error {
	var body ConnectionRequestBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.ToUserID == "" {
		return fail(c, fiber.StatusBadRequest, "Target user ID is required")
	}

	req, err := h.Connections.RequestConnection(middleware.GetUserID(c), body.ToUserID)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, req)
}

// ConnectWithLink sends a connection request to the owner of a profile link
func (h *Handler) ConnectWithLink(c *fiber.Ctx) error {
	var body ConnectWithLinkBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.Link == "" {
		return fail(c, fiber.StatusBadRequest, "Link is required")
	}

	req, target, err := h.Connections.ConnectWithLink(middleware.GetUserID(c), body.Link)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"request": req,
		"to":      target,
	})
}

// AcceptConnectionRequest accepts a pending request and returns the new conversation
func (h *Handler) AcceptConnectionRequest(c *fiber.Ctx) error {
	convo, err := h.Connections.AcceptRequest(middleware.GetUserID(c), c.Params("fromUserId"))
	if err != nil {
		return h.fromError(c, err)
	}
	if convo == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Sender no longer exists",
		})
	}
	return ok(c, fiber.StatusCreated, convo)
}

// RejectConnectionRequest rejects a pending request
func (h *Handler) RejectConnectionRequest(c *fiber.Ctx) error {
	if err := h.Connections.RejectRequest(middleware.GetUserID(c), c.Params("fromUserId")); err != nil {
		return h.fromError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Connection request rejected",
	})
}
