package handlers

import (
	"ubuhinzi360/server/internal/middleware"
	"ubuhinzi360/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StartDirectRequest represents start direct conversation request body
type StartDirectRequest struct {
	UserID string `json:"userId"`
}

// CreateGroupRequest represents create group request body
type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

// SendMessageRequest represents send message request body
type SendMessageRequest struct {
	Type models.MessageKind `json:"type"`
	Text string             `json:"text"`
	URL  string             `json:"url"`
	Meta *models.MediaMeta  `json:"meta"`
}

// GetConversations lists the current user's conversations, newest first
func (h *Handler) GetConversations(c *fiber.Ctx) error {
	return ok(c, fiber.StatusOK, h.Chat.Summaries(middleware.GetUserID(c)))
}

// GetConversation returns one conversation with its messages
func (h *Handler) GetConversation(c *fiber.Ctx) error {
	convo, err := h.Chat.Conversation(middleware.GetUserID(c), c.Params("id"))
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusOK, convo)
}

// StartDirect opens or reuses the dm with another user
func (h *Handler) StartDirect(c *fiber.Ctx) error {
	var req StartDirectRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.UserID == "" {
		return fail(c, fiber.StatusBadRequest, "User ID is required")
	}

	convo, created, err := h.Chat.StartDirect(middleware.GetUserID(c), req.UserID)
	if err != nil {
		return h.fromError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return ok(c, status, convo)
}

// CreateGroup creates a named group conversation
func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	convo, err := h.Chat.CreateGroup(middleware.GetUserID(c), req.Name, req.MemberIDs)
	if err != nil {
		return h.fromError(c, err)
	}
	return ok(c, fiber.StatusCreated, convo)
}

// SendMessage appends a message, plus the assistant's reply in assistant chats
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	// Set default type
	if req.Type == "" {
		req.Type = models.KindText
	}

	if req.Type.IsMedia() && !h.uploadedFile(req.Type, req.URL) {
		return fail(c, fiber.StatusBadRequest, "Attachment must be a file returned by the upload endpoint")
	}

	draft := models.Message{
		Kind: req.Type,
		Text: req.Text,
		URL:  req.URL,
		Meta: req.Meta,
	}
	sent, err := h.Chat.SendMessage(c.UserContext(), middleware.GetUserID(c), c.Params("id"), draft)
	if err != nil && len(sent) == 0 {
		return h.fromError(c, err)
	}
	if err != nil {
		h.logger().Warn("assistant reply not stored", "conversation", c.Params("id"), "error", err)
	}
	return ok(c, fiber.StatusCreated, sent)
}
