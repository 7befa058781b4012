package directory

import (
	"testing"
	"time"

	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
	"ubuhinzi360/server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T, now *time.Time) (*Directory, *state.State) {
	t.Helper()
	st := state.New(state.WithClock(func() time.Time { return *now }))
	require.NoError(t, st.Update(func(tx *state.Tx) error {
		if err := tx.PutUser(&models.User{ID: "me", Name: "Mugisha", ProfileLinkToken: "mugisha-aaaaaa", LinkExpiry: models.LinkExpiryNever, IsLinkActive: true}); err != nil {
			return err
		}
		return tx.PutUser(&models.User{ID: "uwase", Name: "Uwase"})
	}))
	return New(st), st
}

func ptr[T any](v T) *T { return &v }

func TestUpdateProfile(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d, _ := newTestDirectory(t, &now)

	u, err := d.UpdateProfile("me", ProfileUpdate{Name: ptr("  Mugisha J. "), Status: ptr("Harvesting")})
	require.NoError(t, err)
	assert.Equal(t, "Mugisha J.", u.Name)
	assert.Equal(t, "Harvesting", u.Status)
	assert.Nil(t, u.AvatarURL)

	_, err = d.UpdateProfile("me", ProfileUpdate{Name: ptr("   ")})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = d.UpdateProfile("ghost", ProfileUpdate{Status: ptr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateLinkRestartsExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d, _ := newTestDirectory(t, &now)

	u, err := d.UpdateLink("me", LinkSettings{Expiry: ptr(models.LinkExpiry24h)})
	require.NoError(t, err)
	assert.Equal(t, now, u.LinkCreatedAt)
	assert.True(t, u.IsLinkActive)

	now = now.Add(25 * time.Hour)
	u, err = d.UpdateLink("me", LinkSettings{Active: ptr(false)})
	require.NoError(t, err)
	assert.False(t, u.IsLinkActive)
	assert.True(t, u.LinkExpired(now), "toggling active keeps the old window")

	_, err = d.UpdateLink("me", LinkSettings{Expiry: ptr(models.LinkExpiry("1y"))})
	assert.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestRotateLink(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d, st := newTestDirectory(t, &now)

	u, err := d.RotateLink("me")
	require.NoError(t, err)
	assert.NotEqual(t, "mugisha-aaaaaa", u.ProfileLinkToken)
	assert.True(t, utils.ValidateLinkToken(u.ProfileLinkToken))

	require.NoError(t, st.View(func(tx *state.Tx) error {
		assert.Nil(t, tx.UserByLinkToken("mugisha-aaaaaa"))
		assert.NotNil(t, tx.UserByLinkToken(u.ProfileLinkToken))
		return nil
	}))
}

func TestBlockAndUnblock(t *testing.T) {
	now := time.Now()
	d, _ := newTestDirectory(t, &now)

	assert.ErrorIs(t, d.Block("me", "me"), ErrCannotBlockSelf)
	assert.ErrorIs(t, d.Block("me", "ghost"), ErrUserNotFound)

	require.NoError(t, d.Block("me", "uwase"))
	require.NoError(t, d.Block("me", "uwase"))
	blocked, err := d.BlockedUsers("me")
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, "uwase", blocked[0].ID)

	require.NoError(t, d.Unblock("me", "uwase"))
	blocked, err = d.BlockedUsers("me")
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestUpdateSettings(t *testing.T) {
	now := time.Now()
	d, _ := newTestDirectory(t, &now)

	st, err := d.Settings("me")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), st)

	st.Theme = models.ThemeDark
	st.Language = "rw-RW"
	saved, err := d.UpdateSettings("me", st)
	require.NoError(t, err)
	assert.Equal(t, "rw", saved.Language)

	got, err := d.Settings("me")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, got.Theme)
	assert.Equal(t, "rw", got.Language)

	tests := []struct {
		name   string
		mutate func(s *models.Settings)
	}{
		{name: "bad audience", mutate: func(s *models.Settings) { s.Privacy.Contact = "friends" }},
		{name: "bad theme", mutate: func(s *models.Settings) { s.Theme = "sepia" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.DefaultSettings()
			tt.mutate(&s)
			_, err := d.UpdateSettings("me", s)
			assert.ErrorIs(t, err, ErrInvalidSetting)
		})
	}

	_, err = d.Settings("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
