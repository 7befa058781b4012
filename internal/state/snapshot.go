package state

import (
	"ubuhinzi360/server/internal/models"
)

// Snapshot is a detached copy of every collection
type Snapshot struct {
	Version       uint64
	Users         map[string]*models.User
	Conversations []*models.Conversation
	Settings      map[string]models.Settings
	Posts         []*models.Post
	Plots         []*models.Plot
	Products      []*models.Product
	Alerts        []*models.Alert
}

// Snapshot copies the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Version:       s.version,
		Users:         make(map[string]*models.User, len(s.users)),
		Conversations: make([]*models.Conversation, 0, len(s.conversations)),
		Settings:      make(map[string]models.Settings, len(s.settings)),
	}
	for id, u := range s.users {
		snap.Users[id] = u.Clone()
	}
	for _, c := range s.conversations {
		snap.Conversations = append(snap.Conversations, c.Clone())
	}
	for id, st := range s.settings {
		snap.Settings[id] = st
	}
	snap.Posts = cloneAll(s.posts, (*models.Post).Clone)
	snap.Plots = cloneAll(s.plots, copyOf[models.Plot])
	snap.Products = cloneAll(s.products, copyOf[models.Product])
	snap.Alerts = cloneAll(s.alerts, copyOf[models.Alert])
	return snap
}

// Restore replaces the state with snap. Conversations keep the snapshot's order.
func (s *State) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*models.User, len(snap.Users))
	for id, u := range snap.Users {
		if u == nil {
			continue
		}
		s.users[id] = u.Clone()
	}

	s.conversations = make([]*models.Conversation, 0, len(snap.Conversations))
	s.byID = make(map[string]*models.Conversation, len(snap.Conversations))
	for _, c := range snap.Conversations {
		if c == nil || s.byID[c.ID] != nil {
			continue
		}
		cc := c.Clone()
		s.conversations = append(s.conversations, cc)
		s.byID[cc.ID] = cc
	}

	s.settings = make(map[string]models.Settings, len(snap.Settings))
	for id, st := range snap.Settings {
		s.settings[id] = st
	}
	s.posts = cloneAll(snap.Posts, (*models.Post).Clone)
	s.plots = cloneAll(snap.Plots, copyOf[models.Plot])
	s.products = cloneAll(snap.Products, copyOf[models.Product])
	s.alerts = cloneAll(snap.Alerts, copyOf[models.Alert])
	s.version++
}

// cloneAll copies items, skipping nil entries
func cloneAll[T any](items []*T, clone func(*T) *T) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, clone(it))
		}
	}
	return out
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}
