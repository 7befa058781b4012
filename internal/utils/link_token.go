package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ProfileLinkBase is the prefix of sharable profile links
const ProfileLinkBase = "https://ubuhinzi360.app/connect/"

// GenerateLinkToken generates a profile link token in format word-1a2b3c
func GenerateLinkToken(name string) string {
	prefix := "user"
	if words := strings.Fields(name); len(words) > 0 {
		prefix = strings.ToLower(words[0])
	}
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}

	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, random[:6])
}

// ProfileLink builds the sharable link for a token
func ProfileLink(token string) string {
	return ProfileLinkBase + token
}

// ParseLinkToken extracts the token from a pasted link: its last path segment
func ParseLinkToken(link string) string {
	link = strings.TrimSpace(link)
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	return link
}

// ValidateLinkToken validates the format of a link token
func ValidateLinkToken(token string) bool {
	if len(token) < 3 {
		return false
	}
	parts := strings.Split(token, "-")
	return len(parts) >= 2 && parts[0] != "" && parts[len(parts)-1] != ""
}
