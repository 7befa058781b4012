package activity

import (
	"fmt"
	"time"

	"ubuhinzi360/server/internal/i18n"
	"ubuhinzi360/server/internal/models"
)

// Entry is the display form of a feed item
type Entry struct {
	Kind           Kind                `json:"type"`
	Title          string              `json:"title"`
	Snippet        string              `json:"snippet,omitempty"`
	User           models.UserResponse `json:"user"`
	ConversationID string              `json:"conversationId,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
	Ago            string              `json:"ago"`
}

// Render projects items into localized entries relative to now
func Render(items []Item, lang string, now time.Time) []Entry {
	tr := i18n.For(lang)
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case RequestItem:
			out = append(out, Entry{
				Kind:      KindRequest,
				Title:     fmt.Sprintf("%s %s", tr.ConnectionRequestFrom, v.From.Name),
				User:      v.From,
				Timestamp: v.Request.Timestamp,
				Ago:       tr.RelTime(v.Request.Timestamp, now),
			})
		case MessageItem:
			title := fmt.Sprintf("%s %s", tr.NewMessageFrom, v.Sender.Name)
			if v.Conversation.Type == models.ConversationGroup {
				title = fmt.Sprintf("%s %s", tr.NewMessageIn, v.Conversation.Name)
			}
			out = append(out, Entry{
				Kind:           KindMessage,
				Title:          title,
				Snippet:        Snippet(v.Message, tr),
				User:           v.Sender,
				ConversationID: v.Conversation.ID,
				Timestamp:      v.Message.Timestamp,
				Ago:            tr.RelTime(v.Message.Timestamp, now),
			})
		}
	}
	return out
}

// Snippet is the one-line preview of a message
func Snippet(m models.Message, tr i18n.Strings) string {
	switch m.Kind {
	case models.KindText, models.KindSystem:
		return m.Text
	case models.KindImage:
		return "🖼️ " + tr.SentAnImage
	case models.KindVideo:
		return "📹 " + tr.SentAVideo
	case models.KindAudio:
		return "🎤 " + tr.SentAVoiceMessage
	default:
		return ""
	}
}
