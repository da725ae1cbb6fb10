package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// Session binds an identity to a live connection.
type Session struct {
	Conn     core.ConnID     `json:"connectionId"`
	Identity domain.Identity `json:"identity"`
	JoinedAt time.Time       `json:"joinedAt"`
}

// Registry is the connection registry: one Session per identified connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.ConnID]*Session),
		now:      time.Now,
	}
}

// Bind creates or overwrites the session of conn.
func (r *Registry) Bind(conn core.ConnID, id domain.Identity) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{Conn: conn, Identity: id, JoinedAt: r.now()}
	if old, ok := r.sessions[conn]; ok && old.Identity != id {
		log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("from_user", string(old.Identity.UserID)).Str("user", string(id.UserID)).Msg("rebound session")
	}
	r.sessions[conn] = s
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("user", string(id.UserID)).Msg("bound session")
	return *s
}

func (r *Registry) Lookup(conn core.ConnID) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[conn]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", conn, domain.ErrNotFound)
	}
	return *s, nil
}

// Unbind removes the session of conn, returning it if there was one.
func (r *Registry) Unbind(conn core.ConnID) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[conn]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("user", string(s.Identity.UserID)).Msg("unbind session")
	return *s, true
}

// ConnsOf lists every connection currently bound to user.
func (r *Registry) ConnsOf(user domain.UserID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ConnID, 0, 1)
	for conn, s := range r.sessions {
		if s.Identity.UserID == user {
			out = append(out, conn)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
