package state

import (
	"fmt"
	"time"

	"ubuhinzi360/server/internal/models"

	"github.com/google/uuid"
)

// NewID allocates a time-ordered identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Conversations returns the live conversations in store order
func (tx *Tx) Conversations() []*models.Conversation {
	return tx.s.conversations
}

// Conversation returns the live conversation with id, or nil
func (tx *Tx) Conversation(id string) *models.Conversation {
	return tx.s.byID[id]
}

// ConversationsFor returns the live conversations userID takes part in
func (tx *Tx) ConversationsFor(userID string) []*models.Conversation {
	var out []*models.Conversation
	for _, c := range tx.s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out
}

// FindExistingDirectConversation returns the first dm in store order that
// viewerID shares with userID. Store order decides if duplicates exist.
func (tx *Tx) FindExistingDirectConversation(viewerID, userID string) *models.Conversation {
	for _, c := range tx.s.conversations {
		if c.Type == models.ConversationDM && c.HasParticipant(userID) && c.HasParticipant(viewerID) {
			return c
		}
	}
	return nil
}

// CreateConversation allocates a conversation, optionally seeded with one
// message, and prepends it to the store.
func (tx *Tx) CreateConversation(participants []string, typ models.ConversationType, name string, seed *models.Message) (*models.Conversation, error) {
	members := dedupe(participants)

	switch typ {
	case models.ConversationDM:
		if len(members) != 2 {
			return nil, fmt.Errorf("%w: dm needs exactly 2 participants, got %d", ErrInvalidParticipants, len(members))
		}
		name = ""
	case models.ConversationGroup:
		if name == "" {
			return nil, ErrGroupNameRequired
		}
		if len(members) < 2 {
			return nil, fmt.Errorf("%w: group needs at least 2 participants", ErrInvalidParticipants)
		}
	default:
		return nil, fmt.Errorf("unknown conversation type %q", typ)
	}

	now := tx.Now()
	c := &models.Conversation{
		ID:           NewID(),
		Type:         typ,
		Name:         name,
		Participants: members,
		Messages:     []models.Message{},
		CreatedAt:    now,
	}

	if seed != nil {
		msg := seed.Clone()
		stamp(&msg, now)
		if err := msg.Validate(); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, msg)
	}

	if err := tx.write(); err != nil {
		return nil, err
	}
	tx.s.conversations = append([]*models.Conversation{c}, tx.s.conversations...)
	tx.s.byID[c.ID] = c
	return c, nil
}

// AppendMessage appends msg to the conversation with id. An unknown id is
// a no-op reported as false.
func (tx *Tx) AppendMessage(conversationID string, msg models.Message) (models.Message, bool, error) {
	c := tx.s.byID[conversationID]
	if c == nil {
		return models.Message{}, false, nil
	}

	msg = msg.Clone()
	stamp(&msg, tx.Now())
	if err := msg.Validate(); err != nil {
		return models.Message{}, false, err
	}

	if err := tx.write(); err != nil {
		return models.Message{}, false, err
	}
	c.Messages = append(c.Messages, msg)
	return msg, true, nil
}

func stamp(m *models.Message, now time.Time) {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
