package state

import (
	"testing"
	"time"

	"ubuhinzi360/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestState(t *testing.T, ids ...string) *State {
	t.Helper()
	st := New(WithClock(func() time.Time { return t0 }))
	require.NoError(t, st.Update(func(tx *Tx) error {
		for _, id := range ids {
			if err := tx.PutUser(&models.User{ID: id, Name: id}); err != nil {
				return err
			}
		}
		return nil
	}))
	return st
}

func TestUpdateBumpsVersionOnlyOnWrites(t *testing.T) {
	st := newTestState(t, "u1")
	v := st.Version()

	require.NoError(t, st.Update(func(tx *Tx) error {
		_ = tx.User("u1")
		return nil
	}))
	assert.Equal(t, v, st.Version(), "read-only update must not bump the version")

	require.NoError(t, st.Update(func(tx *Tx) error {
		return tx.MutateUser("u1", func(u *models.User) { u.Status = "planting" })
	}))
	assert.Equal(t, v+1, st.Version())
}

func TestViewRejectsWrites(t *testing.T) {
	st := newTestState(t, "u1")
	err := st.View(func(tx *Tx) error {
		return tx.MutateUser("u1", func(u *models.User) { u.Name = "x" })
	})
	assert.ErrorIs(t, err, ErrReadOnly)

	u, ok := st.User("u1")
	require.True(t, ok)
	assert.Equal(t, "u1", u.Name)
}

func TestAccessorsReturnCopies(t *testing.T) {
	st := newTestState(t, "u1")
	u, ok := st.User("u1")
	require.True(t, ok)
	u.Name = "changed"

	again, _ := st.User("u1")
	assert.Equal(t, "u1", again.Name)
}

func TestCreateConversation(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
		typ          models.ConversationType
		convName     string
		wantErr      error
	}{
		{name: "dm", participants: []string{"u1", "u2"}, typ: models.ConversationDM},
		{name: "dm with duplicate participant", participants: []string{"u1", "u1"}, typ: models.ConversationDM, wantErr: ErrInvalidParticipants},
		{name: "dm with three participants", participants: []string{"u1", "u2", "u3"}, typ: models.ConversationDM, wantErr: ErrInvalidParticipants},
		{name: "group", participants: []string{"u1", "u2", "u3"}, typ: models.ConversationGroup, convName: "Maize"},
		{name: "group without name", participants: []string{"u1", "u2"}, typ: models.ConversationGroup, wantErr: ErrGroupNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestState(t, "u1", "u2", "u3")
			err := st.Update(func(tx *Tx) error {
				_, err := tx.CreateConversation(tt.participants, tt.typ, tt.convName, nil)
				return err
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, st.ConversationsFor("u1"))
				return
			}
			require.NoError(t, err)
			convos := st.ConversationsFor("u1")
			require.Len(t, convos, 1)
			assert.Equal(t, tt.typ, convos[0].Type)
			assert.Equal(t, t0, convos[0].CreatedAt)
			assert.NotEmpty(t, convos[0].ID)
		})
	}
}

func TestCreateConversationPrependsAndSeeds(t *testing.T) {
	st := newTestState(t, "u1", "u2", "u3")
	var first, second *models.Conversation
	require.NoError(t, st.Update(func(tx *Tx) error {
		var err error
		first, err = tx.CreateConversation([]string{"u1", "u2"}, models.ConversationDM, "", nil)
		if err != nil {
			return err
		}
		second, err = tx.CreateConversation([]string{"u1", "u3"}, models.ConversationDM, "", &models.Message{
			SenderID: models.SystemSenderID,
			Kind:     models.KindSystem,
			Text:     "hello",
		})
		return err
	}))

	convos := st.ConversationsFor("u1")
	require.Len(t, convos, 2)
	assert.Equal(t, second.ID, convos[0].ID, "newest conversation comes first")
	assert.Equal(t, first.ID, convos[1].ID)

	require.Len(t, convos[0].Messages, 1)
	assert.NotEmpty(t, convos[0].Messages[0].ID)
	assert.Equal(t, t0, convos[0].Messages[0].Timestamp)
}

func TestAppendMessage(t *testing.T) {
	st := newTestState(t, "u1", "u2")
	var convID string
	require.NoError(t, st.Update(func(tx *Tx) error {
		c, err := tx.CreateConversation([]string{"u1", "u2"}, models.ConversationDM, "", nil)
		if err != nil {
			return err
		}
		convID = c.ID
		return nil
	}))

	t.Run("unknown conversation is a no-op", func(t *testing.T) {
		v := st.Version()
		require.NoError(t, st.Update(func(tx *Tx) error {
			_, ok, err := tx.AppendMessage("missing", models.Message{SenderID: "u1", Kind: models.KindText, Text: "hi"})
			assert.False(t, ok)
			return err
		}))
		assert.Equal(t, v, st.Version())
	})

	t.Run("invalid message is rejected", func(t *testing.T) {
		err := st.Update(func(tx *Tx) error {
			_, _, err := tx.AppendMessage(convID, models.Message{SenderID: "u1", Kind: models.KindImage})
			return err
		})
		assert.ErrorIs(t, err, models.ErrInvalidMessage)
	})

	t.Run("append", func(t *testing.T) {
		require.NoError(t, st.Update(func(tx *Tx) error {
			msg, ok, err := tx.AppendMessage(convID, models.Message{SenderID: "u1", Kind: models.KindText, Text: "hi"})
			assert.True(t, ok)
			assert.NotEmpty(t, msg.ID)
			return err
		}))
		c, ok := st.Conversation(convID)
		require.True(t, ok)
		require.Len(t, c.Messages, 1)
		assert.Equal(t, "hi", c.LastMessage().Text)
	})
}

func TestFindExistingDirectConversation(t *testing.T) {
	st := newTestState(t, "u1", "u2", "u3")
	var dm *models.Conversation
	require.NoError(t, st.Update(func(tx *Tx) error {
		if _, err := tx.CreateConversation([]string{"u1", "u2", "u3"}, models.ConversationGroup, "g", nil); err != nil {
			return err
		}
		var err error
		dm, err = tx.CreateConversation([]string{"u1", "u2"}, models.ConversationDM, "", nil)
		return err
	}))

	require.NoError(t, st.View(func(tx *Tx) error {
		found := tx.FindExistingDirectConversation("u1", "u2")
		require.NotNil(t, found)
		assert.Equal(t, dm.ID, found.ID)
		assert.Nil(t, tx.FindExistingDirectConversation("u1", "u3"), "groups are not direct conversations")
		assert.Nil(t, tx.FindExistingDirectConversation("u3", "u2"))
		return nil
	}))
}

func TestSnapshotRestore(t *testing.T) {
	st := newTestState(t, "u1", "u2")
	require.NoError(t, st.Update(func(tx *Tx) error {
		if _, err := tx.CreateConversation([]string{"u1", "u2"}, models.ConversationDM, "", nil); err != nil {
			return err
		}
		s := models.DefaultSettings()
		s.Theme = models.ThemeDark
		return tx.SetSettings("u1", s)
	}))

	snap := st.Snapshot()
	restored := New()
	restored.Restore(snap)

	got := restored.Snapshot()
	got.Version, snap.Version = 0, 0
	assert.Equal(t, snap, got)
	assert.Equal(t, models.ThemeDark, restored.Settings("u1").Theme)
	assert.Equal(t, models.DefaultSettings(), restored.Settings("u2"))
}

func TestSettingsForUnknownUser(t *testing.T) {
	st := newTestState(t)
	err := st.Update(func(tx *Tx) error {
		return tx.SetSettings("ghost", models.DefaultSettings())
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClearPresence(t *testing.T) {
	st := New()
	st.Restore(Snapshot{Users: map[string]*models.User{
		"u1": {ID: "u1", Name: "u1", IsOnline: true},
		"u2": {ID: "u2", Name: "u2"},
	}})

	v := st.Version()
	require.NoError(t, st.ClearPresence())
	assert.Equal(t, v+1, st.Version())
	for _, u := range st.Users() {
		assert.False(t, u.IsOnline, u.ID)
	}

	require.NoError(t, st.ClearPresence())
	assert.Equal(t, v+1, st.Version(), "nothing left to clear")
}
