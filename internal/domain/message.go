package domain

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
	MessageFile  MessageType = "file"
)

// MessageContent is the client-supplied part of a message.
type MessageContent struct {
	Type          MessageType `json:"type"`
	Text          string      `json:"text,omitempty"`
	VoicePath     string      `json:"voicePath,omitempty"`
	VoiceDuration float64     `json:"voiceDuration,omitempty"`
	FilePath      string      `json:"filePath,omitempty"`
	FileName      string      `json:"fileName,omitempty"`
	FileSize      int64       `json:"fileSize,omitempty"`
	FileType      string      `json:"fileType,omitempty"`
}

// Normalize defaults the type to text and checks the payload fields the type needs.
func (c MessageContent) Normalize() (MessageContent, error) {
	if c.Type == "" {
		c.Type = MessageText
	}
	switch c.Type {
	case MessageText:
		if c.Text == "" {
			return c, fmt.Errorf("%w: text message without text", ErrValidation)
		}
	case MessageVoice:
		if c.VoicePath == "" {
			return c, fmt.Errorf("%w: voice message without voicePath", ErrValidation)
		}
	case MessageFile:
		if c.FilePath == "" {
			return c, fmt.Errorf("%w: file message without filePath", ErrValidation)
		}
	default:
		return c, fmt.Errorf("%w: unknown message type %q", ErrValidation, c.Type)
	}
	return c, nil
}

// Viewer records the first time a user saw a message.
type Viewer struct {
	UserID   UserID    `json:"userId"`
	UserName string    `json:"userName"`
	ViewedAt time.Time `json:"viewedAt"`
}

type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	UserID    UserID    `json:"userId"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	MessageContent
	ViewedBy []Viewer   `json:"viewedBy"`
	IsPinned bool       `json:"isPinned"`
	PinnedBy *string    `json:"pinnedBy"`
	PinnedAt *time.Time `json:"pinnedAt"`
}

func (m *Message) ViewedByUser(id UserID) bool {
	return lo.ContainsBy(m.ViewedBy, func(v Viewer) bool { return v.UserID == id })
}

// Clone returns a copy that shares no mutable state with m.
func (m *Message) Clone() Message {
	out := *m
	out.ViewedBy = append([]Viewer{}, m.ViewedBy...)
	if m.PinnedBy != nil {
		out.PinnedBy = lo.ToPtr(*m.PinnedBy)
	}
	if m.PinnedAt != nil {
		out.PinnedAt = lo.ToPtr(*m.PinnedAt)
	}
	return out
}
