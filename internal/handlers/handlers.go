// Package handlers holds the Fiber handlers of the REST and websocket API.
package handlers

import (
	"errors"
	"log/slog"

	"ubuhinzi360/server/internal/assistant"
	"ubuhinzi360/server/internal/chat"
	"ubuhinzi360/server/internal/community"
	"ubuhinzi360/server/internal/connections"
	"ubuhinzi360/server/internal/directory"
	"ubuhinzi360/server/internal/middleware"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
	ws "ubuhinzi360/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
)

// Handler carries the services behind every route
type Handler struct {
	State       *state.State
	Connections *connections.Service
	Chat        *chat.Service
	Directory   *directory.Directory
	Community   *community.Service
	Assistant   *assistant.Assistant
	Hub         *ws.Hub

	JWTSecret     []byte
	UploadDir     string
	SecureCookies bool
	Logger        *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fromError maps a service error to a response
func (h *Handler) fromError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		h.logger().Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return fail(c, status, "Internal server error")
	}
	return fail(c, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, state.ErrUserNotFound),
		errors.Is(err, state.ErrConversationNotFound),
		errors.Is(err, connections.ErrNoPendingRequest),
		errors.Is(err, state.ErrPostNotFound),
		errors.Is(err, state.ErrPlotNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chat.ErrNotParticipant),
		errors.Is(err, community.ErrNotOwner),
		errors.Is(err, connections.ErrRequestBlocked):
		return fiber.StatusForbidden
	case errors.Is(err, connections.ErrRequestPending),
		errors.Is(err, connections.ErrAlreadyConnected):
		return fiber.StatusConflict
	case errors.Is(err, connections.ErrSelfRequest),
		errors.Is(err, connections.ErrInvalidLink),
		errors.Is(err, chat.ErrSelfConversation),
		errors.Is(err, state.ErrInvalidParticipants),
		errors.Is(err, state.ErrGroupNameRequired),
		errors.Is(err, models.ErrInvalidMessage),
		errors.Is(err, models.ErrUnknownMessageKind),
		errors.Is(err, directory.ErrNameRequired),
		errors.Is(err, directory.ErrInvalidExpiry),
		errors.Is(err, directory.ErrCannotBlockSelf),
		errors.Is(err, directory.ErrInvalidSetting),
		errors.Is(err, community.ErrContentRequired),
		errors.Is(err, models.ErrInvalidPlot),
		errors.Is(err, models.ErrInvalidProduct),
		errors.Is(err, models.ErrInvalidAlert):
		return fiber.StatusBadRequest
	case errors.Is(err, assistant.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, assistant.ErrMalformedResponse),
		errors.Is(err, assistant.ErrEmptyResponse):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// language resolves the client language from ?lang, then the user's settings
func (h *Handler) language(c *fiber.Ctx) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}
	return h.State.Settings(middleware.GetUserID(c)).Language
}

// Health reports liveness
func (h *Handler) Health(c *fiber.Ctx) error {
	data := fiber.Map{
		"status":       "ok",
		"message":      "Ubuhinzi360 API is running",
		"stateVersion": h.State.Version(),
		"assistant":    h.Assistant.Enabled(),
	}
	if h.Hub != nil {
		data["onlineUsers"] = h.Hub.GetOnlineCount()
	}
	return c.JSON(data)
}
