package models

// Audience controls who may see or do something
type Audience string

const (
	AudienceEveryone     Audience = "everyone"
	AudienceContactsOnly Audience = "contactsOnly"
	AudienceNobody       Audience = "nobody"
)

// PrivacySettings represents who can reach or see a user
type PrivacySettings struct {
	Contact      Audience `json:"contact"`
	ProfilePhoto Audience `json:"profilePhoto"`
	Status       Audience `json:"status"`
}

// NotificationSettings represents notification toggles
type NotificationSettings struct {
	Messages  bool `json:"messages"`
	Groups    bool `json:"groups"`
	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`
}

// ChatSettings represents chat display preferences
type ChatSettings struct {
	EnterToSend bool   `json:"enterToSend"`
	FontSize    string `json:"fontSize"`
	Wallpaper   string `json:"wallpaper,omitempty"`
}

// Theme is the UI color scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings groups every per-user preference
type Settings struct {
	Privacy       PrivacySettings      `json:"privacy"`
	Notifications NotificationSettings `json:"notifications"`
	Chat          ChatSettings         `json:"chat"`
	Language      string               `json:"language"`
	Theme         Theme                `json:"theme"`
}

// DefaultSettings returns the preferences of a new user
func DefaultSettings() Settings {
	return Settings{
		Privacy: PrivacySettings{
			Contact:      AudienceEveryone,
			ProfilePhoto: AudienceEveryone,
			Status:       AudienceContactsOnly,
		},
		Notifications: NotificationSettings{
			Messages:  true,
			Groups:    true,
			Sound:     true,
			Vibration: true,
		},
		Chat: ChatSettings{
			EnterToSend: true,
			FontSize:    "medium",
		},
		Language: "en",
		Theme:    ThemeLight,
	}
}
