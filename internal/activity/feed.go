// Package activity builds the dashboard feed: pending connection requests
// and the latest incoming message of each conversation, newest first.
package activity

import (
	"sort"
	"time"

	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
)

// MaxItems bounds the feed length
const MaxItems = 5

// Kind tags a feed item variant
type Kind string

const (
	KindRequest Kind = "request"
	KindMessage Kind = "message"
)

// Item is a feed entry. It is implemented by RequestItem and MessageItem only.
type Item interface {
	Kind() Kind
	At() time.Time
	item()
}

// RequestItem is a pending connection request addressed to the viewer
type RequestItem struct {
	From    models.UserResponse
	Request models.ConnectionRequest
}

func (RequestItem) Kind() Kind { return KindRequest }
func (r RequestItem) At() time.Time { return r.Request.Timestamp }
func (RequestItem) item() {}

// MessageItem is the last message of a conversation, sent by someone else
type MessageItem struct {
	Conversation models.ConversationSummary
	Sender       models.UserResponse
	Message      models.Message
}

func (MessageItem) Kind() Kind { return KindMessage }
func (m MessageItem) At() time.Time { return m.Message.Timestamp }
func (MessageItem) item() {}

// Build collects the feed for viewerID: at most MaxItems entries sorted by
// timestamp descending. On equal timestamps requests come before messages,
// and within a kind inbox order and store order are kept. Entries that
// reference unknown users are dropped before truncation.
func Build(st *state.State, viewerID string) ([]Item, error) {
	var items []Item
	err := st.View(func(tx *state.Tx) error {
		viewer := tx.User(viewerID)
		if viewer == nil {
			return state.ErrUserNotFound
		}
		items = collect(tx, viewer)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].At(), items[j].At()
		if !a.Equal(b) {
			return a.After(b)
		}
		return rank(items[i]) < rank(items[j])
	})

	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	return items, nil
}

func collect(tx *state.Tx, viewer *models.User) []Item {
	items := []Item{}
	for _, r := range viewer.ConnectionRequests {
		if r.Status != models.RequestPending {
			continue
		}
		from := tx.User(r.FromUserID)
		if from == nil {
			continue
		}
		items = append(items, RequestItem{From: from.ToResponse(), Request: r})
	}

	for _, c := range tx.ConversationsFor(viewer.ID) {
		last := c.LastMessage()
		if last == nil || last.SenderID == viewer.ID || last.IsSystem() {
			continue
		}
		sender := tx.User(last.SenderID)
		if sender == nil {
			continue
		}
		summary := models.ConversationSummary{
			ID:           c.ID,
			Type:         c.Type,
			Name:         c.Name,
			Participants: []models.UserResponse{},
		}
		for _, id := range c.Participants {
			if u := tx.User(id); u != nil {
				summary.Participants = append(summary.Participants, u.ToResponse())
			}
		}
		items = append(items, MessageItem{Conversation: summary, Sender: sender.ToResponse(), Message: last.Clone()})
	}
	return items
}

func rank(it Item) int {
	switch it.(type) {
	case RequestItem:
		return 0
	case MessageItem:
		return 1
	default:
		return 2
	}
}
