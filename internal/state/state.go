// Package state holds the application's shared data: the user directory,
// the conversation store, per-user settings and the community boards. All writes go through
// Update, which runs one transaction at a time and bumps the version.
package state

import (
	"errors"
	"sync"
	"time"

	"ubuhinzi360/server/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidParticipants  = errors.New("invalid participants")
	ErrGroupNameRequired    = errors.New("group name is required")
	ErrReadOnly             = errors.New("write attempted in read-only transaction")
	ErrPostNotFound         = errors.New("post not found")
	ErrPlotNotFound         = errors.New("plot not found")
)

// State is the process-wide application state
type State struct {
	mu      sync.RWMutex
	version uint64

	users         map[string]*models.User
	conversations []*models.Conversation // newest first
	byID          map[string]*models.Conversation
	settings      map[string]models.Settings

	posts    []*models.Post // newest first
	plots    []*models.Plot
	products []*models.Product
	alerts   []*models.Alert

	now func() time.Time
}

// Option configures a State
type Option func(*State)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates an empty state
func New(opts ...Option) *State {
	s := &State{
		users:    make(map[string]*models.User),
		byID:     make(map[string]*models.Conversation),
		settings: make(map[string]models.Settings),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version returns the number of committed write transactions
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Now returns the current time from the state's clock
func (s *State) Now() time.Time {
	return s.now().UTC()
}

// Update runs fn as the single writer. The version is bumped when fn
// returns nil. Tx methods validate before mutating, so a returned error
// leaves the state as it was unless fn itself wrote before failing.
func (s *State) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s, writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.dirty {
		s.version++
	}
	return nil
}

// View runs fn with a read-only transaction
func (s *State) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&Tx{s: s})
}

// User returns a copy of the user with id
func (s *State) User(id string) (*models.User, bool) {
	var out *models.User
	s.View(func(tx *Tx) error {
		if u := tx.User(id); u != nil {
			out = u.Clone()
		}
		return nil
	})
	return out, out != nil
}

// Users returns copies of every user ordered by id
func (s *State) Users() []*models.User {
	var out []*models.User
	s.View(func(tx *Tx) error {
		for _, u := range tx.Users() {
			out = append(out, u.Clone())
		}
		return nil
	})
	return out
}

// Conversation returns a copy of the conversation with id
func (s *State) Conversation(id string) (*models.Conversation, bool) {
	var out *models.Conversation
	s.View(func(tx *Tx) error {
		if c := tx.Conversation(id); c != nil {
			out = c.Clone()
		}
		return nil
	})
	return out, out != nil
}

// ConversationsFor returns copies of the conversations userID takes part in, in store order
func (s *State) ConversationsFor(userID string) []*models.Conversation {
	var out []*models.Conversation
	s.View(func(tx *Tx) error {
		for _, c := range tx.ConversationsFor(userID) {
			out = append(out, c.Clone())
		}
		return nil
	})
	return out
}

// Settings returns the preferences of userID, or the defaults
func (s *State) Settings(userID string) models.Settings {
	var out models.Settings
	s.View(func(tx *Tx) error {
		out = tx.Settings(userID)
		return nil
	})
	return out
}

// Tx is a transaction over the state. Pointers returned by a Tx are live
// and must not escape the transaction.
type Tx struct {
	s        *State
	writable bool
	dirty    bool
}

// Now returns the state's clock reading
func (tx *Tx) Now() time.Time {
	return tx.s.Now()
}

func (tx *Tx) write() error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.dirty = true
	return nil
}
