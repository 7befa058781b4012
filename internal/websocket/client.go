package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Client represents a WebSocket client connection
type Client struct {
	ID   string // User ID
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte
}

// NewClient creates a new WebSocket client
func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   userID,
		Conn: conn,
		Hub:  hub,
		Send: make(chan []byte, 256),
	}
}

// Serve registers the client and runs both pumps until the connection closes
func (c *Client) Serve() {
	if !c.Hub.register(c) {
		c.Conn.Close()
		return
	}
	go c.WritePump()
	c.ReadPump()
}

// ReadPump handles incoming messages from the client
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket read error", "user", c.ID, "error", err)
			}
			break
		}

		var incoming IncomingMessage
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.Hub.logger.Debug("failed to parse websocket message", "user", c.ID, "error", err)
			continue
		}

		c.handleIncomingMessage(incoming)
	}
}

// WritePump handles outgoing messages to the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("websocket write error", "user", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleIncomingMessage processes different types of incoming messages
func (c *Client) handleIncomingMessage(msg IncomingMessage) {
	switch msg.Type {
	case EventTypingStart, EventTypingStop:
		c.handleTyping(msg.Type, msg.Payload)
	default:
		c.Hub.logger.Debug("unknown websocket message type", "user", c.ID, "type", msg.Type)
	}
}

// handleTyping relays a typing indicator to the other participants
func (c *Client) handleTyping(eventType EventType, payload TypingPayload) {
	if payload.ConversationID == "" {
		return
	}
	payload.UserID = c.ID

	c.Hub.BroadcastToConversation(payload.ConversationID, WSMessage{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}, c.ID)
}
