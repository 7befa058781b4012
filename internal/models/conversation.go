package models

import (
	"slices"
	"time"
)

// ConversationType distinguishes direct from group conversations
type ConversationType string

const (
	ConversationDM    ConversationType = "dm"
	ConversationGroup ConversationType = "group"
)

// Conversation is a direct or group thread with an append-only message log.
// The first participant is the creator by convention.
type Conversation struct {
	ID           string           `json:"id"`
	Type         ConversationType `json:"type"`
	Name         string           `json:"name,omitempty"`
	Participants []string         `json:"participants"`
	Messages     []Message        `json:"messages"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// HasParticipant reports whether userID takes part in c
func (c *Conversation) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// LastMessage returns the most recent message, or nil for an empty log
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	m := c.Messages[len(c.Messages)-1]
	return &m
}

// Other returns the participant of a dm that is not userID
func (c *Conversation) Other(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// Clone returns a deep copy of c
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Participants = slices.Clone(c.Participants)
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.Clone()
	}
	return &out
}

// ConversationSummary is the list view of a conversation
type ConversationSummary struct {
	ID           string           `json:"id"`
	Type         ConversationType `json:"type"`
	Name         string           `json:"name,omitempty"`
	Participants []UserResponse   `json:"participants"`
	LastMessage  *Message         `json:"lastMessage,omitempty"`
}
