package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients mapped by user ID
	Clients map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	state   *state.State
	logger  *slog.Logger
	done    chan struct{}
	stopped chan struct{}

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(st *state.State, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		state:      st,
		logger:     logger,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			close(h.stopped)
			return
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	// If user already has a connection, close the old one
	if existing, ok := h.Clients[client.ID]; ok {
		close(existing.Send)
	}
	h.Clients[client.ID] = client
	h.mu.Unlock()

	h.setOnline(client.ID, true)
	h.logger.Info("websocket client connected", "user", client.ID)
}

// unregisterClient removes a client unless it was already replaced by a newer connection
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, ok := h.Clients[client.ID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.Clients, client.ID)
	close(client.Send)
	h.mu.Unlock()

	h.setOnline(client.ID, false)
	h.logger.Info("websocket client disconnected", "user", client.ID)
}

// register hands a client to the loop unless the hub has stopped
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Stopped is closed once Run has returned and presence is cleared
func (h *Hub) Stopped() <-chan struct{} {
	return h.stopped
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// closeAll drops every client and marks its user offline. Peers are not
// told since their connections are closing too.
func (h *Hub) closeAll() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.Clients))
	for id, client := range h.Clients {
		close(client.Send)
		delete(h.Clients, id)
		ids = append(ids, id)
	}
	h.mu.Unlock()

	if h.state == nil || len(ids) == 0 {
		return
	}
	err := h.state.Update(func(tx *state.Tx) error {
		for _, id := range ids {
			if err := tx.MutateUser(id, func(u *models.User) { u.IsOnline = false }); err != nil {
				h.logger.Warn("failed to clear presence", "user", id, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		h.logger.Warn("failed to clear presence", "error", err)
	}
	h.logger.Info("websocket hub stopped", "clients", len(ids))
}

// setOnline records presence in the directory and tells the user's peers
func (h *Hub) setOnline(userID string, isOnline bool) {
	if h.state == nil {
		return
	}
	err := h.state.Update(func(tx *state.Tx) error {
		return tx.MutateUser(userID, func(u *models.User) {
			u.IsOnline = isOnline
		})
	})
	if err != nil {
		h.logger.Warn("failed to update presence", "user", userID, "error", err)
		return
	}

	eventType := EventUserOnline
	if !isOnline {
		eventType = EventUserOffline
	}
	h.BroadcastToUsers(h.peers(userID), WSMessage{
		Type: eventType,
		Payload: PresencePayload{
			UserID:   userID,
			IsOnline: isOnline,
			LastSeen: time.Now().UTC(),
		},
		Timestamp: time.Now().UTC(),
	})
}

// peers returns every user sharing a conversation with userID
func (h *Hub) peers(userID string) []string {
	seen := map[string]struct{}{userID: {}}
	var out []string
	for _, c := range h.state.ConversationsFor(userID) {
		for _, p := range c.Participants {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Publish delivers a domain event to the listed users
func (h *Hub) Publish(userIDs []string, eventType string, payload any) {
	h.BroadcastToUsers(userIDs, WSMessage{
		Type:      EventType(eventType),
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}

// BroadcastToUsers sends a message to multiple users
func (h *Hub) BroadcastToUsers(userIDs []string, message WSMessage) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "type", message.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		if client, ok := h.Clients[userID]; ok {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("websocket send buffer full", "user", userID)
			}
		}
	}
}

// BroadcastToConversation sends a message to the participants of a
// conversation except excludeUserID
func (h *Hub) BroadcastToConversation(conversationID string, message WSMessage, excludeUserID string) {
	c, ok := h.state.Conversation(conversationID)
	if !ok || !c.HasParticipant(excludeUserID) {
		return
	}
	recipients := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != excludeUserID {
			recipients = append(recipients, p)
		}
	}
	h.BroadcastToUsers(recipients, message)
}

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.Clients[userID]
	return ok
}

// GetOnlineCount returns the number of currently connected clients
func (h *Hub) GetOnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.Clients)
}
