package models

import (
	"slices"
	"time"
)

// Role is the community role shown next to a user's name
type Role string

const (
	RoleFarmer    Role = "Farmer"
	RoleBuyer     Role = "Buyer"
	RoleYou       Role = "You"
	RoleAssistant Role = "AI Assistant"
)

// AssistantUserID is the directory entry that answers through the assistant
const AssistantUserID = "ai-assistant"

// LinkExpiry is how long a shared profile link stays valid
type LinkExpiry string

const (
	LinkExpiry24h   LinkExpiry = "24h"
	LinkExpiry3d    LinkExpiry = "3d"
	LinkExpiry7d    LinkExpiry = "7d"
	LinkExpiryNever LinkExpiry = "never"
)

// Duration returns the validity window, zero for never
func (e LinkExpiry) Duration() time.Duration {
	switch e {
	case LinkExpiry24h:
		return 24 * time.Hour
	case LinkExpiry3d:
		return 3 * 24 * time.Hour
	case LinkExpiry7d:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Valid reports whether e is one of the known expiry options
func (e LinkExpiry) Valid() bool {
	switch e {
	case LinkExpiry24h, LinkExpiry3d, LinkExpiry7d, LinkExpiryNever:
		return true
	}
	return false
}

// User represents a member of the community directory
type User struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        Role    `json:"role"`
	Status      string  `json:"status"`
	AvatarColor string  `json:"avatarColor"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	IsOnline    bool    `json:"isOnline"`

	// Sharable invite link
	ProfileLinkToken string     `json:"profileLinkToken"`
	LinkExpiry       LinkExpiry `json:"linkExpiry"`
	LinkCreatedAt    time.Time  `json:"linkCreatedAt"`
	IsLinkActive     bool       `json:"isLinkActive"`

	// Requests received by this user, newest first
	ConnectionRequests []ConnectionRequest `json:"connectionRequests"`
	RejectedUserIDs    []string            `json:"rejectedUserIds"`
	BlockedUserIDs     []string            `json:"blockedUserIds"`
}

// UserResponse is the public profile sent to other users
type UserResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        Role    `json:"role"`
	Status      string  `json:"status"`
	AvatarColor string  `json:"avatarColor"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	IsOnline    bool    `json:"isOnline"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Role:        u.Role,
		Status:      u.Status,
		AvatarColor: u.AvatarColor,
		AvatarURL:   u.AvatarURL,
		IsOnline:    u.IsOnline,
	}
}

// LinkExpired reports whether the profile link has passed its expiry at now
func (u *User) LinkExpired(now time.Time) bool {
	d := u.LinkExpiry.Duration()
	if d == 0 || u.LinkCreatedAt.IsZero() {
		return false
	}
	return now.After(u.LinkCreatedAt.Add(d))
}

// HasRejected reports whether u has rejected a request from userID before
func (u *User) HasRejected(userID string) bool {
	return slices.Contains(u.RejectedUserIDs, userID)
}

// HasBlocked reports whether u has blocked userID
func (u *User) HasBlocked(userID string) bool {
	return slices.Contains(u.BlockedUserIDs, userID)
}

// Clone returns a deep copy of u
func (u *User) Clone() *User {
	c := *u
	if u.AvatarURL != nil {
		url := *u.AvatarURL
		c.AvatarURL = &url
	}
	c.ConnectionRequests = slices.Clone(u.ConnectionRequests)
	c.RejectedUserIDs = slices.Clone(u.RejectedUserIDs)
	c.BlockedUserIDs = slices.Clone(u.BlockedUserIDs)
	return &c
}

// AddUnique appends id to set unless it is already present
func AddUnique(set []string, id string) []string {
	if slices.Contains(set, id) {
		return set
	}
	return append(set, id)
}

// Remove returns set without id
func Remove(set []string, id string) []string {
	return slices.DeleteFunc(set, func(s string) bool { return s == id })
}
