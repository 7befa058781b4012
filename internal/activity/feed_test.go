package activity

import (
	"testing"
	"time"

	"ubuhinzi360/server/internal/i18n"
	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time {
	return now.Add(-d)
}

func person(id string) *models.User {
	return &models.User{ID: id, Name: id, Role: models.RoleFarmer}
}

func dm(id, a, b string, msgs ...models.Message) *models.Conversation {
	return &models.Conversation{ID: id, Type: models.ConversationDM, Participants: []string{a, b}, Messages: msgs}
}

func text(sender string, at time.Time, body string) models.Message {
	return models.Message{ID: sender + "-" + body, SenderID: sender, Kind: models.KindText, Text: body, Timestamp: at}
}

func newState(snap state.Snapshot) *state.State {
	st := state.New(state.WithClock(func() time.Time { return now }))
	st.Restore(snap)
	return st
}

func TestBuildTruncatesToNewestFive(t *testing.T) {
	me := person("me")
	me.ConnectionRequests = []models.ConnectionRequest{
		{FromUserID: "r1", Status: models.RequestPending, Timestamp: ago(10 * time.Minute)},
		{FromUserID: "r2", Status: models.RequestPending, Timestamp: ago(30 * time.Minute)},
		{FromUserID: "r3", Status: models.RequestPending, Timestamp: ago(50 * time.Minute)},
		{FromUserID: "r4", Status: models.RequestAccepted, Timestamp: ago(1 * time.Minute)},
	}
	users := map[string]*models.User{"me": me}
	for _, id := range []string{"r1", "r2", "r3", "r4", "m1", "m2", "m3", "m4"} {
		users[id] = person(id)
	}

	st := newState(state.Snapshot{
		Users: users,
		Conversations: []*models.Conversation{
			dm("c1", "me", "m1", text("m1", ago(5*time.Minute), "one")),
			dm("c2", "me", "m2", text("m2", ago(20*time.Minute), "two")),
			dm("c3", "me", "m3", text("m3", ago(40*time.Minute), "three")),
			dm("c4", "me", "m4", text("m4", ago(60*time.Minute), "four")),
		},
	})

	items, err := Build(st, "me")
	require.NoError(t, err)
	require.Len(t, items, MaxItems)

	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].At().After(items[i].At()), "item %d is not older than item %d", i, i-1)
	}

	want := []time.Duration{5, 10, 20, 30, 40}
	for i, d := range want {
		assert.Equal(t, ago(d*time.Minute), items[i].At())
	}
	assert.Equal(t, KindMessage, items[0].Kind())
	assert.Equal(t, KindRequest, items[1].Kind())
	assert.Equal(t, "r1", items[1].(RequestItem).From.ID)
}

func TestBuildSkipsOwnAndSystemMessages(t *testing.T) {
	system := models.Message{ID: "sys", SenderID: models.SystemSenderID, Kind: models.KindSystem, Text: "You are now connected with a.", Timestamp: ago(time.Minute)}
	st := newState(state.Snapshot{
		Users: map[string]*models.User{"me": person("me"), "a": person("a"), "b": person("b"), "c": person("c")},
		Conversations: []*models.Conversation{
			dm("own", "me", "a", text("a", ago(time.Hour), "hi"), text("me", ago(time.Minute), "hello back")),
			dm("sys", "me", "b", system),
			dm("empty", "me", "c"),
			dm("other", "a", "b", text("a", ago(time.Minute), "not for me")),
		},
	})

	items, err := Build(st, "me")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBuildDropsUnknownSenders(t *testing.T) {
	me := person("me")
	me.ConnectionRequests = []models.ConnectionRequest{
		{FromUserID: "ghost", Status: models.RequestPending, Timestamp: ago(time.Minute)},
	}
	st := newState(state.Snapshot{
		Users: map[string]*models.User{"me": me, "a": person("a")},
		Conversations: []*models.Conversation{
			dm("c1", "me", "a", text("gone", ago(time.Minute), "orphan")),
		},
	})

	items, err := Build(st, "me")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBuildTieBreak(t *testing.T) {
	at := ago(15 * time.Minute)
	me := person("me")
	me.ConnectionRequests = []models.ConnectionRequest{
		{FromUserID: "r1", Status: models.RequestPending, Timestamp: at},
		{FromUserID: "r2", Status: models.RequestPending, Timestamp: at},
	}
	st := newState(state.Snapshot{
		Users: map[string]*models.User{"me": me, "r1": person("r1"), "r2": person("r2"), "m1": person("m1"), "m2": person("m2")},
		Conversations: []*models.Conversation{
			dm("c1", "me", "m1", text("m1", at, "first")),
			dm("c2", "me", "m2", text("m2", at, "second")),
		},
	})

	items, err := Build(st, "me")
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "r1", items[0].(RequestItem).From.ID)
	assert.Equal(t, "r2", items[1].(RequestItem).From.ID)
	assert.Equal(t, "c1", items[2].(MessageItem).Conversation.ID)
	assert.Equal(t, "c2", items[3].(MessageItem).Conversation.ID)
}

func TestBuildUnknownViewer(t *testing.T) {
	st := newState(state.Snapshot{})
	_, err := Build(st, "ghost")
	assert.ErrorIs(t, err, state.ErrUserNotFound)
}

func TestRender(t *testing.T) {
	uwase := models.UserResponse{ID: "uwase", Name: "Uwase"}
	items := []Item{
		RequestItem{
			From:    uwase,
			Request: models.ConnectionRequest{FromUserID: "uwase", Status: models.RequestPending, Timestamp: ago(10 * time.Minute)},
		},
		MessageItem{
			Conversation: models.ConversationSummary{ID: "g1", Type: models.ConversationGroup, Name: "Musanze Maize Growers"},
			Sender:       uwase,
			Message:      models.Message{SenderID: "uwase", Kind: models.KindAudio, URL: "/uploads/audios/a.webm", Timestamp: ago(2 * time.Hour)},
		},
		MessageItem{
			Conversation: models.ConversationSummary{ID: "d1", Type: models.ConversationDM},
			Sender:       uwase,
			Message:      models.Message{SenderID: "uwase", Kind: models.KindText, Text: "Muraho", Timestamp: ago(3 * time.Hour)},
		},
	}

	entries := Render(items, "en", now)
	require.Len(t, entries, 3)

	assert.Equal(t, KindRequest, entries[0].Kind)
	assert.Equal(t, "Connection request from Uwase", entries[0].Title)
	assert.Empty(t, entries[0].Snippet)
	assert.Equal(t, "10 minutes ago", entries[0].Ago)

	assert.Equal(t, "New message in Musanze Maize Growers", entries[1].Title)
	assert.Equal(t, "🎤 Sent a voice message", entries[1].Snippet)
	assert.Equal(t, "g1", entries[1].ConversationID)
	assert.Equal(t, "2 hours ago", entries[1].Ago)

	assert.Equal(t, "New message from Uwase", entries[2].Title)
	assert.Equal(t, "Muraho", entries[2].Snippet)

	rw := Render(items[:1], "rw", now)
	assert.Equal(t, "Ubusabe bwo guhuza buturutse kuri Uwase", rw[0].Title)
	assert.Equal(t, "hashize iminota 10", rw[0].Ago)
}

func TestSnippet(t *testing.T) {
	tr := i18n.For("en")
	tests := []struct {
		msg  models.Message
		want string
	}{
		{models.Message{Kind: models.KindText, Text: "Rain is coming"}, "Rain is coming"},
		{models.Message{Kind: models.KindSystem, Text: "Chat started with Keza."}, "Chat started with Keza."},
		{models.Message{Kind: models.KindImage, URL: "x"}, "🖼️ Sent an image"},
		{models.Message{Kind: models.KindVideo, URL: "x"}, "📹 Sent a video"},
		{models.Message{Kind: models.KindAudio, URL: "x"}, "🎤 Sent a voice message"},
	}
	for _, tt := range tests {
		t.Run(string(tt.msg.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Snippet(tt.msg, tr))
		})
	}
}
