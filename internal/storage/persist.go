package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"ubuhinzi360/server/internal/models"
	"ubuhinzi360/server/internal/state"

	"github.com/tidwall/gjson"
)

// Collection keys, one JSON value each
const (
	KeyUsers                = "users"
	KeyConversations        = "conversations"
	KeyProducts             = "products"
	KeyAlerts               = "alerts"
	KeyPosts                = "posts"
	KeyPlots                = "plots"
	KeyBlockedUsers         = "blockedUsers"
	KeyPrivacySettings      = "privacySettings"
	KeyNotificationSettings = "notificationSettings"
	KeyChatSettings         = "chatSettings"
	KeyLanguage             = "language"
	KeyTheme                = "theme"
)

// collections is the persisted layout of a state snapshot
type collections struct {
	Users         map[string]*models.User
	Conversations []*models.Conversation
	Products      []*models.Product
	Alerts        []*models.Alert
	Posts         []*models.Post
	Plots         []*models.Plot
	Blocked       map[string][]string
	Privacy       map[string]models.PrivacySettings
	Notifications map[string]models.NotificationSettings
	Chat          map[string]models.ChatSettings
	Language      map[string]string
	Theme         map[string]models.Theme
}

func split(snap state.Snapshot) collections {
	c := collections{
		Users:         make(map[string]*models.User, len(snap.Users)),
		Blocked:       make(map[string][]string),
		Privacy:       make(map[string]models.PrivacySettings, len(snap.Settings)),
		Notifications: make(map[string]models.NotificationSettings, len(snap.Settings)),
		Chat:          make(map[string]models.ChatSettings, len(snap.Settings)),
		Language:      make(map[string]string, len(snap.Settings)),
		Theme:         make(map[string]models.Theme, len(snap.Settings)),
	}
	c.Conversations = orEmpty(snap.Conversations)
	c.Products = orEmpty(snap.Products)
	c.Alerts = orEmpty(snap.Alerts)
	c.Posts = orEmpty(snap.Posts)
	c.Plots = orEmpty(snap.Plots)

	for id, u := range snap.Users {
		cu := u.Clone()
		if len(cu.BlockedUserIDs) > 0 {
			c.Blocked[id] = cu.BlockedUserIDs
		}
		// blocked ids live under their own key
		cu.BlockedUserIDs = nil
		c.Users[id] = cu
	}

	for id, st := range snap.Settings {
		c.Privacy[id] = st.Privacy
		c.Notifications[id] = st.Notifications
		c.Chat[id] = st.Chat
		c.Language[id] = st.Language
		c.Theme[id] = st.Theme
	}
	return c
}

func (c collections) join() state.Snapshot {
	snap := state.Snapshot{
		Users:         make(map[string]*models.User, len(c.Users)),
		Conversations: c.Conversations,
		Settings:      make(map[string]models.Settings),
		Products:      c.Products,
		Alerts:        c.Alerts,
		Posts:         c.Posts,
		Plots:         c.Plots,
	}

	for id, u := range c.Users {
		if u == nil {
			continue
		}
		cu := u.Clone()
		cu.BlockedUserIDs = c.Blocked[id]
		snap.Users[id] = cu
	}

	settingsFor := func(id string) models.Settings {
		if st, ok := snap.Settings[id]; ok {
			return st
		}
		return models.DefaultSettings()
	}
	for id, v := range c.Privacy {
		st := settingsFor(id)
		st.Privacy = v
		snap.Settings[id] = st
	}
	for id, v := range c.Notifications {
		st := settingsFor(id)
		st.Notifications = v
		snap.Settings[id] = st
	}
	for id, v := range c.Chat {
		st := settingsFor(id)
		st.Chat = v
		snap.Settings[id] = st
	}
	for id, v := range c.Language {
		st := settingsFor(id)
		st.Language = v
		snap.Settings[id] = st
	}
	for id, v := range c.Theme {
		st := settingsFor(id)
		st.Theme = v
		snap.Settings[id] = st
	}
	return snap
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Save writes every collection of snap under its key
func Save(ctx context.Context, kv KV, snap state.Snapshot) error {
	c := split(snap)
	values := []struct {
		key   string
		value any
	}{
		{KeyUsers, c.Users},
		{KeyConversations, c.Conversations},
		{KeyProducts, c.Products},
		{KeyAlerts, c.Alerts},
		{KeyPosts, c.Posts},
		{KeyPlots, c.Plots},
		{KeyBlockedUsers, c.Blocked},
		{KeyPrivacySettings, c.Privacy},
		{KeyNotificationSettings, c.Notifications},
		{KeyChatSettings, c.Chat},
		{KeyLanguage, c.Language},
		{KeyTheme, c.Theme},
	}

	for _, v := range values {
		data, err := json.Marshal(v.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", v.key, err)
		}
		if err := kv.Put(ctx, v.key, data); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every collection from kv. A missing key, a null or a value
// that is not valid JSON for its collection falls back to the matching collection
// of defaults; corrupt values are logged and never fail the load. Only
// backend errors are returned.
func Load(ctx context.Context, kv KV, defaults state.Snapshot, logger *slog.Logger) (state.Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	def := split(defaults)
	var out collections
	var err error

	if out.Users, err = loadKey(ctx, kv, KeyUsers, def.Users, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Conversations, err = loadKey(ctx, kv, KeyConversations, def.Conversations, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Products, err = loadKey(ctx, kv, KeyProducts, def.Products, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Alerts, err = loadKey(ctx, kv, KeyAlerts, def.Alerts, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Posts, err = loadKey(ctx, kv, KeyPosts, def.Posts, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Plots, err = loadKey(ctx, kv, KeyPlots, def.Plots, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Blocked, err = loadKey(ctx, kv, KeyBlockedUsers, def.Blocked, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Privacy, err = loadKey(ctx, kv, KeyPrivacySettings, def.Privacy, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Notifications, err = loadKey(ctx, kv, KeyNotificationSettings, def.Notifications, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Chat, err = loadKey(ctx, kv, KeyChatSettings, def.Chat, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Language, err = loadKey(ctx, kv, KeyLanguage, def.Language, logger); err != nil {
		return state.Snapshot{}, err
	}
	if out.Theme, err = loadKey(ctx, kv, KeyTheme, def.Theme, logger); err != nil {
		return state.Snapshot{}, err
	}

	return out.join(), nil
}

func loadKey[T any](ctx context.Context, kv KV, key string, def T, logger *slog.Logger) (T, error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s: %w", key, err)
	}

	if gjson.ParseBytes(data).Type == gjson.Null {
		logger.Warn("persisted value is null, using default", "key", key)
		return def, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Warn("corrupt persisted value, using default", "key", key, "error", err)
		return def, nil
	}
	return v, nil
}
