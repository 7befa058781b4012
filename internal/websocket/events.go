package websocket

import (
	"time"

	"ubuhinzi360/server/internal/chat"
	"ubuhinzi360/server/internal/connections"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// Workflow events
	EventConnectionRequest  EventType = connections.EventRequestReceived
	EventConnectionAccepted EventType = connections.EventRequestAccepted

	// Conversation events
	EventConversationCreated EventType = chat.EventConversationCreated
	EventMessageReceived     EventType = chat.EventMessageReceived

	// Typing events
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"

	// Presence events
	EventUserOnline  EventType = "user_online"
	EventUserOffline EventType = "user_offline"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingPayload represents typing indicator payload
type TypingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// PresencePayload represents user presence payload
type PresencePayload struct {
	UserID   string    `json:"userId"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// IncomingMessage represents messages received from clients
type IncomingMessage struct {
	Type    EventType     `json:"type"`
	Payload TypingPayload `json:"payload"`
}
