// Package directory manages user profiles, sharable profile links, blocked
// users and per-user settings.
package directory

import (
	"errors"
	"strings"

	"ubuhinzi360/server/internal/i18n"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
	"ubuhinzi360/server/internal/utils"
)

var (
	ErrUserNotFound    = state.ErrUserNotFound
	ErrNameRequired    = errors.New("display name is required")
	ErrInvalidExpiry   = errors.New("invalid link expiry")
	ErrCannotBlockSelf = errors.New("you cannot block yourself")
	ErrInvalidSetting  = errors.New("invalid setting value")
)

// Directory wraps the user directory of the shared state
type Directory struct {
	state *state.State
}

// New creates a Directory over st
func New(st *state.State) *Directory {
	return &Directory{state: st}
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Status    *string `json:"status,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// UpdateProfile applies a profile edit and returns the updated user
func (d *Directory) UpdateProfile(userID string, upd ProfileUpdate) (*models.User, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, ErrNameRequired
	}

	var out *models.User
	err := d.state.Update(func(tx *state.Tx) error {
		return tx.MutateUser(userID, func(u *models.User) {
			if upd.Name != nil {
				u.Name = strings.TrimSpace(*upd.Name)
			}
			if upd.Status != nil {
				u.Status = *upd.Status
			}
			if upd.AvatarURL != nil {
				url := *upd.AvatarURL
				u.AvatarURL = &url
			}
			out = u.Clone()
		})
	})
	return out, err
}

// LinkSettings carries profile link changes. Nil fields are left unchanged.
type LinkSettings struct {
	Active *bool              `json:"active,omitempty"`
	Expiry *models.LinkExpiry `json:"expiry,omitempty"`
}

// UpdateLink changes whether the profile link is active and how long it
// lasts. Changing the expiry restarts the validity window.
func (d *Directory) UpdateLink(userID string, ls LinkSettings) (*models.User, error) {
	if ls.Expiry != nil && !ls.Expiry.Valid() {
		return nil, ErrInvalidExpiry
	}

	var out *models.User
	err := d.state.Update(func(tx *state.Tx) error {
		now := tx.Now()
		return tx.MutateUser(userID, func(u *models.User) {
			if ls.Active != nil {
				u.IsLinkActive = *ls.Active
			}
			if ls.Expiry != nil {
				u.LinkExpiry = *ls.Expiry
				u.LinkCreatedAt = now
			}
			out = u.Clone()
		})
	})
	return out, err
}

// RotateLink issues a new profile link token, invalidating the old link
func (d *Directory) RotateLink(userID string) (*models.User, error) {
	var out *models.User
	err := d.state.Update(func(tx *state.Tx) error {
		now := tx.Now()
		return tx.MutateUser(userID, func(u *models.User) {
			u.ProfileLinkToken = utils.GenerateLinkToken(u.Name)
			u.LinkCreatedAt = now
			if u.LinkExpiry == "" {
				u.LinkExpiry = models.LinkExpiryNever
			}
			out = u.Clone()
		})
	})
	return out, err
}

// Block adds otherID to userID's blocked set
func (d *Directory) Block(userID, otherID string) error {
	if userID == otherID {
		return ErrCannotBlockSelf
	}
	return d.state.Update(func(tx *state.Tx) error {
		if tx.User(otherID) == nil {
			return ErrUserNotFound
		}
		return tx.MutateUser(userID, func(u *models.User) {
			u.BlockedUserIDs = models.AddUnique(u.BlockedUserIDs, otherID)
		})
	})
}

// Unblock removes otherID from userID's blocked set
func (d *Directory) Unblock(userID, otherID string) error {
	return d.state.Update(func(tx *state.Tx) error {
		return tx.MutateUser(userID, func(u *models.User) {
			u.BlockedUserIDs = models.Remove(u.BlockedUserIDs, otherID)
		})
	})
}

// BlockedUsers returns the profiles userID has blocked. Unknown ids are skipped.
func (d *Directory) BlockedUsers(userID string) ([]models.UserResponse, error) {
	out := []models.UserResponse{}
	err := d.state.View(func(tx *state.Tx) error {
		u := tx.User(userID)
		if u == nil {
			return ErrUserNotFound
		}
		for _, id := range u.BlockedUserIDs {
			if b := tx.User(id); b != nil {
				out = append(out, b.ToResponse())
			}
		}
		return nil
	})
	return out, err
}

// Settings returns userID's preferences
func (d *Directory) Settings(userID string) (models.Settings, error) {
	if _, ok := d.state.User(userID); !ok {
		return models.Settings{}, ErrUserNotFound
	}
	return d.state.Settings(userID), nil
}

// UpdateSettings validates and stores userID's preferences
func (d *Directory) UpdateSettings(userID string, st models.Settings) (models.Settings, error) {
	if err := validateSettings(&st); err != nil {
		return models.Settings{}, err
	}
	err := d.state.Update(func(tx *state.Tx) error {
		return tx.SetSettings(userID, st)
	})
	return st, err
}

func validateSettings(st *models.Settings) error {
	for _, a := range []models.Audience{st.Privacy.Contact, st.Privacy.ProfilePhoto, st.Privacy.Status} {
		switch a {
		case models.AudienceEveryone, models.AudienceContactsOnly, models.AudienceNobody:
		default:
			return ErrInvalidSetting
		}
	}
	switch st.Theme {
	case models.ThemeLight, models.ThemeDark:
	default:
		return ErrInvalidSetting
	}
	st.Language = i18n.Match(st.Language)
	return nil
}
