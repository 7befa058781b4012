package handlers

import (
	"ubuhinzi360/server/internal/middleware"
	ws "ubuhinzi360/server/internal/websocket"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WebSocketUpgrade checks if the request should be upgraded to WebSocket
func (h *Handler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fail(c, fiber.StatusUpgradeRequired, "WebSocket upgrade required")
}

// WebSocketHandler handles WebSocket connections
func (h *Handler) WebSocketHandler(c *websocket.Conn) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		c.Close()
		return
	}

	// Blocks until the connection closes
	ws.NewClient(userID, c, h.Hub).Serve()
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(c *fiber.Ctx) error {
	if h.Hub == nil {
		return fail(c, fiber.StatusServiceUnavailable, "WebSocket hub not initialized")
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"onlineUsers": h.Hub.GetOnlineCount(),
		"me":          h.Hub.IsUserOnline(middleware.GetUserID(c)),
	})
}
