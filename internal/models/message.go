package models

import (
	"errors"
	"fmt"
	"time"
)

// SystemSenderID is the sender of synthetic in-band notices
const SystemSenderID = "system"

// MessageKind tags the variant carried by a Message
type MessageKind string

const (
	KindText   MessageKind = "text"
	KindImage  MessageKind = "image"
	KindVideo  MessageKind = "video"
	KindAudio  MessageKind = "audio"
	KindSystem MessageKind = "system"
)

// IsMedia reports whether the kind carries an uploaded attachment
func (k MessageKind) IsMedia() bool {
	return k == KindImage || k == KindVideo || k == KindAudio
}

var (
	ErrUnknownMessageKind = errors.New("unknown message kind")
	ErrInvalidMessage     = errors.New("invalid message")
)

// MediaMeta describes an attachment behind a media message
type MediaMeta struct {
	FileName    string  `json:"fileName,omitempty"`
	MimeType    string  `json:"mimeType,omitempty"`
	Size        int64   `json:"size,omitempty"`
	DurationSec float64 `json:"durationSec,omitempty"`
}

// Message is one entry of a conversation log. Immutable once appended.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId"`
	Timestamp time.Time   `json:"timestamp"`
	Kind      MessageKind `json:"type"`
	Text      string      `json:"text,omitempty"`
	URL       string      `json:"url,omitempty"`
	Meta      *MediaMeta  `json:"meta,omitempty"`
}

// Validate checks that the fields required by the message kind are present
func (m *Message) Validate() error {
	switch m.Kind {
	case KindText:
		if m.Text == "" {
			return fmt.Errorf("%w: text message without text", ErrInvalidMessage)
		}
	case KindImage, KindVideo, KindAudio:
		if m.URL == "" {
			return fmt.Errorf("%w: %s message without url", ErrInvalidMessage, m.Kind)
		}
	case KindSystem:
		if m.SenderID != SystemSenderID || m.Text == "" {
			return fmt.Errorf("%w: system message must come from %q with text", ErrInvalidMessage, SystemSenderID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageKind, m.Kind)
	}
	return nil
}

// IsSystem reports whether the message is a synthetic notice
func (m *Message) IsSystem() bool {
	return m.Kind == KindSystem || m.SenderID == SystemSenderID
}

// Clone returns a deep copy of m
func (m Message) Clone() Message {
	if m.Meta != nil {
		meta := *m.Meta
		m.Meta = &meta
	}
	return m
}
