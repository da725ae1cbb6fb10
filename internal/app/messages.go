package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

const DefaultHistoryLimit = 50

// ChannelInfo summarises one chat log.
type ChannelInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MessageCount int    `json:"messageCount"`
}

type channelLog struct {
	messages []*domain.Message
	byID     map[string]*domain.Message
}

func newChannelLog() *channelLog {
	return &channelLog{byID: make(map[string]*domain.Message)}
}

// MessageStore keeps an append-only, per-channel ordered message log and
// publishes every mutation to the channel's members.
type MessageStore struct {
	mu     sync.RWMutex
	logs   map[string]*channelLog
	out    core.Broadcaster
	limit  int
	global string
	now    func() time.Time
	newID  func() string
}

// NewMessageStore seeds an empty log for the global channel.
func NewMessageStore(out core.Broadcaster, limit int, global string) *MessageStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if global == "" {
		global = domain.GlobalChannel
	}
	s := &MessageStore{
		logs:   make(map[string]*channelLog),
		out:    out,
		limit:  limit,
		global: global,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	s.logs[global] = newChannelLog()
	return s
}

// Append stores a new message at the tail of channel and echoes it to every
// member, author included.
func (s *MessageStore) Append(channel string, author *Session, content domain.MessageContent) (domain.Message, error) {
	if author == nil {
		return domain.Message{}, domain.ErrAuthenticationRequired
	}
	if channel == "" {
		return domain.Message{}, fmt.Errorf("%w: channelId required", domain.ErrValidation)
	}
	content, err := content.Normalize()
	if err != nil {
		return domain.Message{}, err
	}

	s.mu.Lock()
	msg := &domain.Message{
		ID:             s.newID(),
		ChannelID:      channel,
		UserID:         author.Identity.UserID,
		Author:         author.Identity.UserName,
		Timestamp:      s.now().UTC(),
		MessageContent: content,
		ViewedBy:       []domain.Viewer{},
	}
	l, ok := s.logs[channel]
	if !ok {
		l = newChannelLog()
		s.logs[channel] = l
	}
	l.messages = append(l.messages, msg)
	l.byID[msg.ID] = msg
	out := msg.Clone()
	s.mu.Unlock()

	s.out.Broadcast(domain.ChatChannel(channel), core.EventChatMessage, out, "")
	log.Info().Str("module", "app.messages").Str("channel", channel).Str("message", out.ID).Str("type", string(out.Type)).Msg("message appended")
	return out, nil
}

type viewedEvent struct {
	MessageID string        `json:"messageId"`
	ChannelID string        `json:"channelId"`
	Viewer    domain.Viewer `json:"viewer"`
}

// MarkViewed records the first view of a message by viewer. Later views by
// the same user are silent no-ops; the bool reports whether a view was added.
func (s *MessageStore) MarkViewed(channel, messageID string, viewer domain.Identity) (domain.Viewer, bool, error) {
	s.mu.Lock()
	msg, err := s.findLocked(channel, messageID)
	if err != nil {
		s.mu.Unlock()
		return domain.Viewer{}, false, err
	}
	if msg.ViewedByUser(viewer.UserID) {
		s.mu.Unlock()
		return domain.Viewer{}, false, nil
	}
	v := domain.Viewer{UserID: viewer.UserID, UserName: viewer.UserName, ViewedAt: s.now().UTC()}
	msg.ViewedBy = append(msg.ViewedBy, v)
	s.mu.Unlock()

	s.out.Broadcast(domain.ChatChannel(channel), core.EventMessageViewed, viewedEvent{
		MessageID: messageID,
		ChannelID: channel,
		Viewer:    v,
	}, "")
	log.Debug().Str("module", "app.messages").Str("channel", channel).Str("message", messageID).Str("user", string(viewer.UserID)).Msg("message viewed")
	return v, true, nil
}

type pinnedEvent struct {
	MessageID string     `json:"messageId"`
	ChannelID string     `json:"channelId"`
	PinnedBy  string     `json:"pinnedBy"`
	PinnedAt  *time.Time `json:"pinnedAt"`
}

type unpinnedEvent struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
}

// SetPinned pins or unpins a message. Any identity may do either.
func (s *MessageStore) SetPinned(channel, messageID string, pinned bool, by domain.Identity) (domain.Message, error) {
	s.mu.Lock()
	msg, err := s.findLocked(channel, messageID)
	if err != nil {
		s.mu.Unlock()
		return domain.Message{}, err
	}
	msg.IsPinned = pinned
	if pinned {
		msg.PinnedBy = lo.ToPtr(by.UserName)
		msg.PinnedAt = lo.ToPtr(s.now().UTC())
	} else {
		msg.PinnedBy = nil
		msg.PinnedAt = nil
	}
	out := msg.Clone()
	s.mu.Unlock()

	if pinned {
		s.out.Broadcast(domain.ChatChannel(channel), core.EventMessagePinned, pinnedEvent{
			MessageID: messageID,
			ChannelID: channel,
			PinnedBy:  by.UserName,
			PinnedAt:  out.PinnedAt,
		}, "")
	} else {
		s.out.Broadcast(domain.ChatChannel(channel), core.EventMessageUnpinned, unpinnedEvent{
			MessageID: messageID,
			ChannelID: channel,
		}, "")
	}
	log.Info().Str("module", "app.messages").Str("channel", channel).Str("message", messageID).Bool("pinned", pinned).Str("user", string(by.UserID)).Msg("pin state changed")
	return out, nil
}

// Query returns the most recent limit messages strictly older than before
// (when set), in ascending time order. A non-positive limit means the default.
func (s *MessageStore) Query(channel string, before *time.Time, limit int) []domain.Message {
	if limit <= 0 {
		limit = s.limit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[channel]
	if !ok {
		return []domain.Message{}
	}
	matching := l.messages
	if before != nil {
		matching = lo.Filter(l.messages, func(m *domain.Message, _ int) bool {
			return m.Timestamp.Before(*before)
		})
	}
	if len(matching) > limit {
		matching = matching[len(matching)-limit:]
	}
	return lo.Map(matching, func(m *domain.Message, _ int) domain.Message { return m.Clone() })
}

// Get returns a copy of one message.
func (s *MessageStore) Get(channel, messageID string) (domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, err := s.findLocked(channel, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	return msg.Clone(), nil
}

// Channels lists every channel that has a log, sorted by id.
func (s *MessageStore) Channels() []ChannelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChannelInfo, 0, len(s.logs))
	for id, l := range s.logs {
		name := id
		if id == s.global {
			name = "All Projects"
		}
		out = append(out, ChannelInfo{ID: id, Name: name, MessageCount: len(l.messages)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MessageStore) findLocked(channel, messageID string) (*domain.Message, error) {
	l, ok := s.logs[channel]
	if !ok {
		return nil, fmt.Errorf("message %s in channel %s: %w", messageID, channel, domain.ErrNotFound)
	}
	msg, ok := l.byID[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s in channel %s: %w", messageID, channel, domain.ErrNotFound)
	}
	return msg, nil
}
