package connections

import (
	"sync"
	"testing"
	"time"

	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"
	"ubuhinzi360/server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	to        []string
	eventType string
	payload   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) Publish(userIDs []string, eventType string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{to: userIDs, eventType: eventType, payload: payload})
}

type fixture struct {
	st     *state.State
	svc    *Service
	events *fakePublisher
	now    time.Time
}

func newFixture(t *testing.T, users ...*models.User) *fixture {
	t.Helper()
	f := &fixture{
		events: &fakePublisher{},
		now:    time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	f.st = state.New(state.WithClock(func() time.Time { return f.now }))
	require.NoError(t, f.st.Update(func(tx *state.Tx) error {
		for _, u := range users {
			if err := tx.PutUser(u); err != nil {
				return err
			}
		}
		return nil
	}))
	f.svc = NewService(f.st, f.events, nil)
	return f
}

func user(id string) *models.User {
	return &models.User{ID: id, Name: id, Role: models.RoleFarmer}
}

func linkedUser(id, token string, expiry models.LinkExpiry, active bool, createdAt time.Time) *models.User {
	u := user(id)
	u.ProfileLinkToken = token
	u.LinkExpiry = expiry
	u.IsLinkActive = active
	u.LinkCreatedAt = createdAt
	return u
}

func TestSendThenAccept(t *testing.T) {
	f := newFixture(t, user("u1"), user("u2"))
	t0 := f.now

	req, err := f.svc.SendRequest("u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, t0, req.Timestamp)

	f.now = t0.Add(time.Minute)
	convo, err := f.svc.AcceptRequest("u1", "u2")
	require.NoError(t, err)
	require.NotNil(t, convo)

	u1, _ := f.st.User("u1")
	require.Len(t, u1.ConnectionRequests, 1)
	assert.Equal(t, models.RequestAccepted, u1.ConnectionRequests[0].Status)
	assert.Equal(t, t0, u1.ConnectionRequests[0].Timestamp)

	convos := f.st.ConversationsFor("u1")
	require.Len(t, convos, 1)
	assert.Equal(t, models.ConversationDM, convos[0].Type)
	assert.Equal(t, []string{"u1", "u2"}, convos[0].Participants)
	require.Len(t, convos[0].Messages, 1)
	msg := convos[0].Messages[0]
	assert.Equal(t, models.KindSystem, msg.Kind)
	assert.Equal(t, models.SystemSenderID, msg.SenderID)
	assert.Equal(t, "You are now connected with u2.", msg.Text)
	assert.Equal(t, f.now, msg.Timestamp)

	require.NoError(t, f.st.View(func(tx *state.Tx) error {
		found := tx.FindExistingDirectConversation("u1", "u2")
		require.NotNil(t, found)
		assert.Equal(t, convo.ID, found.ID)
		return nil
	}))
}

func TestAcceptUsesViewerLanguage(t *testing.T) {
	f := newFixture(t, user("u1"), &models.User{ID: "u2", Name: "Uwase"})
	require.NoError(t, f.st.Update(func(tx *state.Tx) error {
		s := models.DefaultSettings()
		s.Language = "rw"
		return tx.SetSettings("u1", s)
	}))

	_, err := f.svc.SendRequest("u2", "u1")
	require.NoError(t, err)
	convo, err := f.svc.AcceptRequest("u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "Ubu muhujwe na Uwase.", convo.Messages[0].Text)
}

func TestDuplicatePendingRequestIsRejected(t *testing.T) {
	f := newFixture(t, user("u1"), user("u2"))

	_, err := f.svc.SendRequest("u2", "u1")
	require.NoError(t, err)
	_, err = f.svc.SendRequest("u2", "u1")
	assert.ErrorIs(t, err, ErrRequestPending)

	u1, _ := f.st.User("u1")
	assert.Len(t, u1.ConnectionRequests, 1)
}

func TestSendRequestToUnknownUser(t *testing.T) {
	f := newFixture(t, user("u1"))
	_, err := f.svc.SendRequest("u1", "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRejectIsIdempotent(t *testing.T) {
	f := newFixture(t, user("u1"), user("u2"))
	_, err := f.svc.SendRequest("u2", "u1")
	require.NoError(t, err)

	require.NoError(t, f.svc.RejectRequest("u1", "u2"))
	v := f.st.Version()
	require.NoError(t, f.svc.RejectRequest("u1", "u2"))
	assert.Equal(t, v, f.st.Version(), "second reject must not write")

	u1, _ := f.st.User("u1")
	assert.Equal(t, []string{"u2"}, u1.RejectedUserIDs)
	require.Len(t, u1.ConnectionRequests, 1)
	assert.Equal(t, models.RequestRejected, u1.ConnectionRequests[0].Status)
	assert.Empty(t, f.st.ConversationsFor("u1"))
}

func TestAcceptEdgeCases(t *testing.T) {
	t.Run("unknown sender is a silent no-op", func(t *testing.T) {
		f := newFixture(t, user("u1"))
		convo, err := f.svc.AcceptRequest("u1", "ghost")
		assert.NoError(t, err)
		assert.Nil(t, convo)
		assert.Empty(t, f.st.ConversationsFor("u1"))
	})

	t.Run("no pending request", func(t *testing.T) {
		f := newFixture(t, user("u1"), user("u2"))
		_, err := f.svc.AcceptRequest("u1", "u2")
		assert.ErrorIs(t, err, ErrNoPendingRequest)
		assert.Empty(t, f.st.ConversationsFor("u1"))
	})

	t.Run("accepting twice creates one conversation", func(t *testing.T) {
		f := newFixture(t, user("u1"), user("u2"))
		_, err := f.svc.SendRequest("u2", "u1")
		require.NoError(t, err)
		_, err = f.svc.AcceptRequest("u1", "u2")
		require.NoError(t, err)
		_, err = f.svc.AcceptRequest("u1", "u2")
		assert.ErrorIs(t, err, ErrNoPendingRequest)
		assert.Len(t, f.st.ConversationsFor("u1"), 1)
	})
}

func TestRequestConnectionChecks(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture)
		to      string
		wantErr error
	}{
		{name: "self", to: "u1", wantErr: ErrSelfRequest},
		{name: "unknown target", to: "ghost", wantErr: ErrUserNotFound},
		{
			name: "target rejected us before",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.svc.RejectRequest("u2", "u1"))
			},
			to:      "u2",
			wantErr: ErrRequestBlocked,
		},
		{
			name: "target blocked us",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.st.Update(func(tx *state.Tx) error {
					return tx.MutateUser("u2", func(u *models.User) { u.BlockedUserIDs = []string{"u1"} })
				}))
			},
			to:      "u2",
			wantErr: ErrRequestBlocked,
		},
		{
			name: "already connected",
			setup: func(t *testing.T, f *fixture) {
				require.NoError(t, f.st.Update(func(tx *state.Tx) error {
					_, err := tx.CreateConversation([]string{"u1", "u2"}, models.ConversationDM, "", nil)
					return err
				}))
			},
			to:      "u2",
			wantErr: ErrAlreadyConnected,
		},
		{name: "ok", to: "u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, user("u1"), user("u2"))
			if tt.setup != nil {
				tt.setup(t, f)
			}
			_, err := f.svc.RequestConnection("u1", tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			pending, err := f.svc.PendingRequests("u2")
			require.NoError(t, err)
			require.Len(t, pending, 1)
			assert.Equal(t, "u1", pending[0].From.ID)
		})
	}
}

func TestConnectWithLink(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	users := func() []*models.User {
		return []*models.User{
			linkedUser("me", "me-aaaaaa", models.LinkExpiryNever, true, now),
			linkedUser("open", "open-bbbbbb", models.LinkExpiry7d, true, now.Add(-time.Hour)),
			linkedUser("off", "off-cccccc", models.LinkExpiryNever, false, now),
			linkedUser("old", "old-dddddd", models.LinkExpiry24h, true, now.Add(-25*time.Hour)),
		}
	}

	tests := []struct {
		name     string
		link     string
		wantErr  error
		wantUser string
	}{
		{name: "own link", link: utils.ProfileLink("me-aaaaaa"), wantErr: ErrSelfRequest},
		{name: "unknown token", link: utils.ProfileLink("nobody-000000"), wantErr: ErrInvalidLink},
		{name: "empty link", link: "   ", wantErr: ErrInvalidLink},
		{name: "inactive link", link: utils.ProfileLink("off-cccccc"), wantErr: ErrInvalidLink},
		{name: "expired link", link: utils.ProfileLink("old-dddddd"), wantErr: ErrInvalidLink},
		{name: "full link with query", link: utils.ProfileLink("open-bbbbbb") + "?ref=qr", wantUser: "open"},
		{name: "bare token", link: "open-bbbbbb", wantUser: "open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, users()...)
			f.now = now

			req, target, err := f.svc.ConnectWithLink("me", tt.link)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, target.ID)
			assert.Equal(t, "me", req.FromUserID)

			owner, _ := f.st.User(tt.wantUser)
			require.Len(t, owner.ConnectionRequests, 1)
			assert.Equal(t, models.RequestPending, owner.ConnectionRequests[0].Status)
		})
	}
}

func TestPendingAndHistoryDropUnknownSenders(t *testing.T) {
	inbox := user("u1")
	inbox.ConnectionRequests = []models.ConnectionRequest{
		{FromUserID: "u2", Status: models.RequestPending},
		{FromUserID: "ghost", Status: models.RequestPending},
		{FromUserID: "u3", Status: models.RequestRejected},
	}
	f := newFixture(t, inbox, user("u2"), user("u3"))

	pending, err := f.svc.PendingRequests("u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "u2", pending[0].From.ID)

	history, err := f.svc.RequestHistory("u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "u3", history[0].From.ID)
}

func TestEventsArePublished(t *testing.T) {
	f := newFixture(t, user("u1"), user("u2"))
	_, err := f.svc.SendRequest("u2", "u1")
	require.NoError(t, err)
	_, err = f.svc.AcceptRequest("u1", "u2")
	require.NoError(t, err)

	require.Len(t, f.events.events, 2)
	assert.Equal(t, EventRequestReceived, f.events.events[0].eventType)
	assert.Equal(t, []string{"u1"}, f.events.events[0].to)
	assert.Equal(t, EventRequestAccepted, f.events.events[1].eventType)
	assert.ElementsMatch(t, []string{"u1", "u2"}, f.events.events[1].to)
}

func dmsBetween(st *state.State, a, b string) []*models.Conversation {
	var out []*models.Conversation
	for _, c := range st.ConversationsFor(a) {
		if c.Type == models.ConversationDM && c.HasParticipant(b) {
			out = append(out, c)
		}
	}
	return out
}

func TestCrossedRequestsShareOneConversation(t *testing.T) {
	f := newFixture(t, user("a"), user("b"))

	_, err := f.svc.RequestConnection("a", "b")
	require.NoError(t, err)
	_, err = f.svc.RequestConnection("b", "a")
	require.NoError(t, err)

	first, err := f.svc.AcceptRequest("b", "a")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	second, err := f.svc.AcceptRequest("a", "b")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	dms := dmsBetween(f.st, "a", "b")
	require.Len(t, dms, 1)
	require.Len(t, dms[0].Messages, 2)
	assert.Equal(t, models.KindSystem, dms[0].Messages[1].Kind)
	assert.Equal(t, f.now, dms[0].Messages[1].Timestamp)

	for _, id := range []string{"a", "b"} {
		u, _ := f.st.User(id)
		require.Len(t, u.ConnectionRequests, 1)
		assert.Equal(t, models.RequestAccepted, u.ConnectionRequests[0].Status)
	}
}

func TestAcceptAfterDirectChatReusesIt(t *testing.T) {
	f := newFixture(t, user("a"), user("b"))

	_, err := f.svc.SendRequest("b", "a")
	require.NoError(t, err)
	var existing *models.Conversation
	require.NoError(t, f.st.Update(func(tx *state.Tx) error {
		var err error
		existing, err = tx.CreateConversation([]string{"a", "b"}, models.ConversationDM, "", nil)
		return err
	}))

	convo, err := f.svc.AcceptRequest("a", "b")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, convo.ID)
	require.Len(t, convo.Messages, 1)
	assert.Equal(t, "You are now connected with b.", convo.Messages[0].Text)
	assert.Len(t, dmsBetween(f.st, "a", "b"), 1)
}
