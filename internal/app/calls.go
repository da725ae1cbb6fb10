package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type callJoinedEvent struct {
	CallID domain.CallID      `json:"callId"`
	Call   domain.CallSession `json:"call"`
}

type callEndedEvent struct {
	CallID domain.CallID `json:"callId"`
}

type participantEvent struct {
	CallID   domain.CallID `json:"callId"`
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
}

type mutedEvent struct {
	CallID  domain.CallID `json:"callId"`
	UserID  domain.UserID `json:"userId"`
	IsMuted bool          `json:"isMuted"`
}

type speakingEvent struct {
	CallID     domain.CallID `json:"callId"`
	UserID     domain.UserID `json:"userId"`
	IsSpeaking bool          `json:"isSpeaking"`
}

// CallManager owns the table of active call sessions. A call is active from
// Start until the Leave that empties its roster.
type CallManager struct {
	mu     sync.RWMutex
	calls  map[domain.CallID]*domain.CallSession
	fabric core.Fabric
	now    func() time.Time
	newID  func() string
}

func NewCallManager(fabric core.Fabric) *CallManager {
	return &CallManager{
		calls:  make(map[domain.CallID]*domain.CallSession),
		fabric: fabric,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Start opens a call hosted by a chat channel. The roster is participants
// when given, otherwise the initiator alone.
func (m *CallManager) Start(conn core.ConnID, initiator domain.Identity, hostChannel, channelName string, participants []domain.Participant) (domain.CallSession, error) {
	if hostChannel == "" {
		return domain.CallSession{}, fmt.Errorf("%w: channelId required", domain.ErrValidation)
	}
	m.mu.Lock()
	id := domain.CallID(m.newID())
	if _, ok := m.calls[id]; ok {
		m.mu.Unlock()
		return domain.CallSession{}, fmt.Errorf("call %s already active", id)
	}
	call := &domain.CallSession{
		ID:          id,
		ChannelID:   hostChannel,
		ChannelName: channelName,
		StartTime:   m.now().UTC(),
	}
	for _, p := range participants {
		if p.ID == "" {
			continue
		}
		call.Add(p)
	}
	if call.Empty() {
		call.Add(domain.ParticipantOf(initiator))
	}
	m.calls[id] = call
	snap := call.Clone()
	m.mu.Unlock()

	m.fabric.JoinChannel(conn, domain.CallChannel(id))
	m.fabric.Broadcast(domain.ChatChannel(hostChannel), core.EventCallStarted, snap, "")
	if err := m.fabric.SendTo(conn, core.EventCallJoined, callJoinedEvent{CallID: id, Call: snap}); err != nil {
		log.Warn().Err(err).Str("module", "app.calls").Str("call", string(id)).Msg("notify initiator")
	}
	log.Info().Str("module", "app.calls").Str("call", string(id)).Str("channel", hostChannel).Str("user", string(initiator.UserID)).Int("participants", len(snap.Participants)).Msg("call started")
	return snap, nil
}

// Join adds identity to the roster (set semantics) and subscribes conn to
// the call channel. Only a newly added participant is announced.
func (m *CallManager) Join(conn core.ConnID, callID domain.CallID, id domain.Identity) (domain.CallSession, error) {
	m.mu.Lock()
	call, ok := m.calls[callID]
	if !ok {
		m.mu.Unlock()
		return domain.CallSession{}, callNotFound(callID)
	}
	added := call.Add(domain.ParticipantOf(id))
	snap := call.Clone()
	m.mu.Unlock()

	channel := domain.CallChannel(callID)
	m.fabric.JoinChannel(conn, channel)
	if added {
		m.fabric.Broadcast(channel, core.EventParticipantJoined, participantEvent{
			CallID:   callID,
			UserID:   id.UserID,
			UserName: id.UserName,
		}, conn)
	}
	if err := m.fabric.SendTo(conn, core.EventCallJoined, callJoinedEvent{CallID: callID, Call: snap}); err != nil {
		log.Warn().Err(err).Str("module", "app.calls").Str("call", string(callID)).Msg("notify joiner")
	}
	log.Info().Str("module", "app.calls").Str("call", string(callID)).Str("user", string(id.UserID)).Bool("added", added).Msg("joined call")
	return snap, nil
}

// Leave removes identity from the roster and unsubscribes conn. The leave
// that empties the roster destroys the call, drops every remaining
// subscriber of its channel and reports ended=true.
func (m *CallManager) Leave(conn core.ConnID, callID domain.CallID, id domain.Identity) (ended bool, err error) {
	channel := domain.CallChannel(callID)
	m.mu.Lock()
	call, ok := m.calls[callID]
	if !ok {
		m.mu.Unlock()
		return false, callNotFound(callID)
	}
	if !call.Remove(id.UserID) {
		m.mu.Unlock()
		m.fabric.LeaveChannel(conn, channel)
		return false, nil
	}
	host := call.ChannelID
	ended = call.Empty()
	if ended {
		delete(m.calls, callID)
	}
	m.mu.Unlock()

	m.fabric.LeaveChannel(conn, channel)
	if ended {
		for _, other := range m.fabric.Members(channel) {
			m.fabric.LeaveChannel(other, channel)
		}
		m.fabric.Broadcast(domain.ChatChannel(host), core.EventCallEnded, callEndedEvent{CallID: callID}, "")
		log.Info().Str("module", "app.calls").Str("call", string(callID)).Msg("call ended")
		return true, nil
	}
	m.fabric.Broadcast(channel, core.EventParticipantLeft, participantEvent{
		CallID:   callID,
		UserID:   id.UserID,
		UserName: id.UserName,
	}, conn)
	log.Info().Str("module", "app.calls").Str("call", string(callID)).Str("user", string(id.UserID)).Msg("left call")
	return false, nil
}

// Mute relays a mute toggle to the other call members. No state is kept.
func (m *CallManager) Mute(conn core.ConnID, callID domain.CallID, id domain.Identity, muted bool) error {
	if !m.Active(callID) {
		return callNotFound(callID)
	}
	m.fabric.Broadcast(domain.CallChannel(callID), core.EventParticipantMuted, mutedEvent{
		CallID:  callID,
		UserID:  id.UserID,
		IsMuted: muted,
	}, conn)
	return nil
}

// Speaking relays a speaking indicator to the other call members.
func (m *CallManager) Speaking(conn core.ConnID, callID domain.CallID, id domain.Identity, speaking bool) error {
	if !m.Active(callID) {
		return callNotFound(callID)
	}
	m.fabric.Broadcast(domain.CallChannel(callID), core.EventParticipantSpeaking, speakingEvent{
		CallID:     callID,
		UserID:     id.UserID,
		IsSpeaking: speaking,
	}, conn)
	return nil
}

func (m *CallManager) Active(callID domain.CallID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.calls[callID]
	return ok
}

func (m *CallManager) Get(callID domain.CallID) (domain.CallSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	call, ok := m.calls[callID]
	if !ok {
		return domain.CallSession{}, callNotFound(callID)
	}
	return call.Clone(), nil
}

// CallsOf lists the active calls whose roster contains user.
func (m *CallManager) CallsOf(user domain.UserID) []domain.CallID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.FilterMap(lo.Values(m.calls), func(c *domain.CallSession, _ int) (domain.CallID, bool) {
		return c.ID, c.Has(user)
	})
}

func (m *CallManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

func callNotFound(id domain.CallID) error {
	return fmt.Errorf("call %s: %w", id, domain.ErrNotFound)
}
