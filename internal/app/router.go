package app

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// Router is a threadsafe in-memory publish/subscribe fabric.
// It never closes adapter-owned resources unless the Policy asks to kick.
type Router struct {
	mu      sync.RWMutex
	conns   map[core.ConnID]core.SignalConnection
	members map[domain.ChannelID]map[core.ConnID]struct{}
	byConn  map[core.ConnID]map[domain.ChannelID]struct{}
	policy  Policy
}

var _ core.Fabric = (*Router)(nil)

func NewRouter(policy Policy) *Router {
	return &Router{
		conns:   make(map[core.ConnID]core.SignalConnection),
		members: make(map[domain.ChannelID]map[core.ConnID]struct{}),
		byConn:  make(map[core.ConnID]map[domain.ChannelID]struct{}),
		policy:  policy,
	}
}

// Attach registers the transport endpoint of a live connection.
func (r *Router) Attach(conn core.ConnID, sc core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = sc
	log.Debug().Str("module", "app.router").Str("conn", string(conn)).Int("live", len(r.conns)).Msg("connection attached")
}

// Detach forgets conn and drops every membership it holds. It returns the
// channels conn was a member of.
func (r *Router) Detach(conn core.ConnID) []domain.ChannelID {
	r.mu.Lock()
	defer r.mu.Unlock()
	left := lo.Keys(r.byConn[conn])
	for _, ch := range left {
		r.removeLocked(conn, ch)
	}
	delete(r.conns, conn)
	log.Debug().Str("module", "app.router").Str("conn", string(conn)).Int("channels", len(left)).Msg("connection detached")
	return left
}

func (r *Router) JoinChannel(conn core.ConnID, channel domain.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[channel]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.members[channel] = set
	}
	if _, ok := set[conn]; ok {
		return false
	}
	set[conn] = struct{}{}
	chans, ok := r.byConn[conn]
	if !ok {
		chans = make(map[domain.ChannelID]struct{})
		r.byConn[conn] = chans
	}
	chans[channel] = struct{}{}
	log.Info().Str("module", "app.router").Str("conn", string(conn)).Str("channel", string(channel)).Msg("joined channel")
	return true
}

func (r *Router) LeaveChannel(conn core.ConnID, channel domain.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.removeLocked(conn, channel) {
		return false
	}
	log.Info().Str("module", "app.router").Str("conn", string(conn)).Str("channel", string(channel)).Msg("left channel")
	return true
}

func (r *Router) removeLocked(conn core.ConnID, channel domain.ChannelID) bool {
	set, ok := r.members[channel]
	if !ok {
		return false
	}
	if _, ok := set[conn]; !ok {
		return false
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.members, channel)
	}
	if chans, ok := r.byConn[conn]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(r.byConn, conn)
		}
	}
	return true
}

func (r *Router) IsMember(conn core.ConnID, channel domain.ChannelID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[channel][conn]
	return ok
}

func (r *Router) Members(channel domain.ChannelID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.members[channel])
}

func (r *Router) ChannelsOf(conn core.ConnID) []domain.ChannelID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byConn[conn])
}

func (r *Router) LiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast delivers to every member of channel except exclude.
func (r *Router) Broadcast(channel domain.ChannelID, event string, payload any, exclude core.ConnID) core.PublishResult {
	frame, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("event", event).Msg("encode broadcast")
		return core.PublishResult{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deliverLocked(channel, lo.Keys(r.members[channel]), frame, event, exclude)
}

// BroadcastAll delivers to every live connection regardless of membership.
func (r *Router) BroadcastAll(event string, payload any, exclude core.ConnID) core.PublishResult {
	frame, err := core.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("event", event).Msg("encode broadcast")
		return core.PublishResult{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deliverLocked("", lo.Keys(r.conns), frame, event, exclude)
}

// SendTo delivers a private event to one connection.
func (r *Router) SendTo(conn core.ConnID, event string, payload any) error {
	frame, err := core.Encode(event, payload)
	if err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.conns[conn]
	if !ok {
		return core.ErrConnClosed
	}
	if err := sc.TrySend(frame); err != nil {
		r.applyPolicyLocked("", conn, sc)
		return err
	}
	return nil
}

func (r *Router) deliverLocked(channel domain.ChannelID, targets []core.ConnID, frame core.Frame, event string, exclude core.ConnID) core.PublishResult {
	res := core.PublishResult{}
	for _, conn := range targets {
		if conn == exclude {
			continue
		}
		sc, ok := r.conns[conn]
		if !ok {
			continue
		}
		if err := sc.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, conn)
			r.applyPolicyLocked(channel, conn, sc)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.router").Str("channel", string(channel)).Str("event", event).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *Router) applyPolicyLocked(channel domain.ChannelID, conn core.ConnID, sc core.SignalConnection) {
	if r.policy == nil {
		return
	}
	switch r.policy.OnBackPressure(channel, conn) {
	case KickMember:
		log.Warn().Str("module", "app.router").Str("conn", string(conn)).Msg("kicking slow connection")
		sc.Close()
	case MarkSlow, DropFrame, NoAction:
	}
}
