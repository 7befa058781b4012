package state

import (
	"sort"

	"ubuhinzi360/server/internal/models"
)

// User returns the live user with id, or nil
func (tx *Tx) User(id string) *models.User {
	return tx.s.users[id]
}

// Users returns the live users ordered by id
func (tx *Tx) Users() []*models.User {
	users := make([]*models.User, 0, len(tx.s.users))
	for _, u := range tx.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// UserByLinkToken finds the user owning a profile link token
func (tx *Tx) UserByLinkToken(token string) *models.User {
	if token == "" {
		return nil
	}
	for _, u := range tx.s.users {
		if u.ProfileLinkToken == token {
			return u
		}
	}
	return nil
}

// PutUser inserts or replaces a user
func (tx *Tx) PutUser(u *models.User) error {
	if u == nil || u.ID == "" {
		return ErrUserNotFound
	}
	if err := tx.write(); err != nil {
		return err
	}
	tx.s.users[u.ID] = u.Clone()
	return nil
}

// MutateUser applies fn to the live user with id
func (tx *Tx) MutateUser(id string, fn func(u *models.User)) error {
	u := tx.s.users[id]
	if u == nil {
		return ErrUserNotFound
	}
	if err := tx.write(); err != nil {
		return err
	}
	fn(u)
	return nil
}

// Settings returns the preferences of userID, or the defaults
func (tx *Tx) Settings(userID string) models.Settings {
	if st, ok := tx.s.settings[userID]; ok {
		return st
	}
	return models.DefaultSettings()
}

// SetSettings stores the preferences of an existing user
func (tx *Tx) SetSettings(userID string, st models.Settings) error {
	if tx.s.users[userID] == nil {
		return ErrUserNotFound
	}
	if err := tx.write(); err != nil {
		return err
	}
	tx.s.settings[userID] = st
	return nil
}

// ClearPresence marks every user offline. Nobody is connected when the
// process starts, whatever the stored flags say.
func (s *State) ClearPresence() error {
	return s.Update(func(tx *Tx) error {
		for _, u := range tx.s.users {
			if !u.IsOnline {
				continue
			}
			if err := tx.write(); err != nil {
				return err
			}
			u.IsOnline = false
		}
		return nil
	})
}
