// Package chat starts conversations and sends messages, including the
// replies of the farming assistant.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ubuhinzi360/server/internal/i18n"
	"ubuhinzi360/server/internal/metrics"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
)

var (
	ErrUserNotFound         = state.ErrUserNotFound
	ErrConversationNotFound = state.ErrConversationNotFound
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

// Live event types
const (
	EventMessageReceived     = "message_received"
	EventConversationCreated = "conversation_created"
)

// Replier produces assistant replies
type Replier interface {
	Enabled() bool
	Reply(ctx context.Context, history []models.Message, assistantID, lang string) (string, error)
}

// Publisher delivers live events to connected users
type Publisher interface {
	Publish(userIDs []string, eventType string, payload any)
}

// MessageEvent is the payload of a message_received event
type MessageEvent struct {
	ConversationID string         `json:"conversationId"`
	Message        models.Message `json:"message"`
}

// Service runs conversation operations over the shared state
type Service struct {
	state     *state.State
	assistant Replier
	events    Publisher
	logger    *slog.Logger
}

// NewService creates a chat service. assistant and events may be nil.
func NewService(st *state.State, assistant Replier, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{state: st, assistant: assistant, events: events, logger: logger}
}

func (s *Service) publish(userIDs []string, eventType string, payload any) {
	if s.events != nil {
		s.events.Publish(userIDs, eventType, payload)
	}
}

// StartDirect returns the dm currentID shares with otherID, creating one
// seeded with a "chat started" notice when none exists.
func (s *Service) StartDirect(currentID, otherID string) (*models.Conversation, bool, error) {
	if currentID == otherID {
		return nil, false, ErrSelfConversation
	}

	var convo *models.Conversation
	var created bool
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(currentID) == nil {
			return ErrUserNotFound
		}
		other := tx.User(otherID)
		if other == nil {
			return ErrUserNotFound
		}

		if existing := tx.FindExistingDirectConversation(currentID, otherID); existing != nil {
			convo = existing.Clone()
			return nil
		}

		tr := i18n.For(tx.Settings(currentID).Language)
		notice := models.Message{
			SenderID: models.SystemSenderID,
			Kind:     models.KindSystem,
			Text:     tr.ChatStarted(other.Name),
		}
		c, err := tx.CreateConversation([]string{currentID, otherID}, models.ConversationDM, "", &notice)
		if err != nil {
			return err
		}
		convo = c.Clone()
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.ConversationsCreated.WithLabelValues(string(models.ConversationDM)).Inc()
		s.logger.Info("direct conversation started", "user", currentID, "with", otherID, "conversation", convo.ID)
		s.publish(convo.Participants, EventConversationCreated, convo)
	}
	return convo, created, nil
}

// CreateGroup creates a named group with the creator first. Unknown members
// are rejected.
func (s *Service) CreateGroup(creatorID, name string, memberIDs []string) (*models.Conversation, error) {
	name = strings.TrimSpace(name)

	var convo *models.Conversation
	err := s.state.Update(func(tx *state.Tx) error {
		if tx.User(creatorID) == nil {
			return ErrUserNotFound
		}
		for _, id := range memberIDs {
			if tx.User(id) == nil {
				return ErrUserNotFound
			}
		}

		participants := append([]string{creatorID}, memberIDs...)
		c, err := tx.CreateConversation(participants, models.ConversationGroup, name, nil)
		if err != nil {
			return err
		}
		convo = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ConversationsCreated.WithLabelValues(string(models.ConversationGroup)).Inc()
	s.logger.Info("group created", "creator", creatorID, "conversation", convo.ID, "members", len(convo.Participants))
	s.publish(convo.Participants, EventConversationCreated, convo)
	return convo, nil
}

// Conversation returns a conversation visible to userID
func (s *Service) Conversation(userID, conversationID string) (*models.Conversation, error) {
	c, ok := s.state.Conversation(conversationID)
	if !ok {
		return nil, ErrConversationNotFound
	}
	if !c.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return c, nil
}

// Summaries lists userID's conversations in store order with participant
// profiles. Unknown participants are left out.
func (s *Service) Summaries(userID string) []models.ConversationSummary {
	out := []models.ConversationSummary{}
	s.state.View(func(tx *state.Tx) error {
		for _, c := range tx.ConversationsFor(userID) {
			sum := models.ConversationSummary{
				ID:           c.ID,
				Type:         c.Type,
				Name:         c.Name,
				Participants: []models.UserResponse{},
				LastMessage:  c.LastMessage(),
			}
			for _, id := range c.Participants {
				if u := tx.User(id); u != nil {
					sum.Participants = append(sum.Participants, u.ToResponse())
				}
			}
			out = append(out, sum)
		}
		return nil
	})
	return out
}

// SendMessage appends draft from senderID. When the conversation includes
// the assistant and it is enabled, the assistant's reply is appended too; a
// failed call appends a localized fallback from the assistant instead.
// The returned slice holds every appended message in order.
func (s *Service) SendMessage(ctx context.Context, senderID, conversationID string, draft models.Message) ([]models.Message, error) {
	draft.ID = ""
	draft.SenderID = senderID
	if draft.Kind == models.KindSystem {
		return nil, models.ErrInvalidMessage
	}

	msg, convo, err := s.append(senderID, conversationID, draft)
	if err != nil {
		return nil, err
	}
	sent := []models.Message{msg}

	if senderID == models.AssistantUserID || !convo.HasParticipant(models.AssistantUserID) {
		return sent, nil
	}
	if s.assistant == nil || !s.assistant.Enabled() {
		return sent, nil
	}

	lang := s.state.Settings(senderID).Language
	text, err := s.assistant.Reply(ctx, convo.Messages, models.AssistantUserID, lang)
	if err != nil || text == "" {
		s.logger.Warn("assistant reply failed, sending fallback", "conversation", conversationID, "error", err)
		text = i18n.For(lang).AssistantFallback
	}

	reply, _, err := s.append(models.AssistantUserID, conversationID, models.Message{
		SenderID: models.AssistantUserID,
		Kind:     models.KindText,
		Text:     text,
	})
	if err != nil {
		return sent, err
	}
	return append(sent, reply), nil
}

func (s *Service) append(senderID, conversationID string, msg models.Message) (models.Message, *models.Conversation, error) {
	var out models.Message
	var convo *models.Conversation
	err := s.state.Update(func(tx *state.Tx) error {
		c := tx.Conversation(conversationID)
		if c == nil {
			return ErrConversationNotFound
		}
		if !c.HasParticipant(senderID) {
			return ErrNotParticipant
		}

		m, _, err := tx.AppendMessage(conversationID, msg)
		if err != nil {
			return err
		}
		out = m
		convo = c.Clone()
		return nil
	})
	if err != nil {
		return models.Message{}, nil, err
	}

	metrics.MessagesAppended.WithLabelValues(string(out.Kind)).Inc()
	s.publish(convo.Participants, EventMessageReceived, MessageEvent{ConversationID: conversationID, Message: out})
	return out, convo, nil
}
