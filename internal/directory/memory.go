// Package directory provides User Directory backends: the external account
// store the signaling core reads identities from and writes presence to.
package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// Memory is an in-process directory.
type Memory struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.User
}

var _ core.UserDirectory = (*Memory)(nil)

func NewMemory(seed ...domain.User) *Memory {
	m := &Memory{users: make(map[domain.UserID]domain.User, len(seed))}
	for _, u := range seed {
		m.users[u.ID] = u
	}
	return m
}

func (m *Memory) Put(_ context.Context, u domain.User) error {
	if u.ID == "" {
		return domain.ErrUserIDEmpty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *Memory) Lookup(_ context.Context, id domain.UserID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (m *Memory) SetStatus(_ context.Context, id domain.UserID, status domain.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	u.Status = status
	u.LastActiveAt = at
	m.users[id] = u
	log.Debug().Str("module", "directory").Str("user", string(id)).Str("status", string(status)).Msg("status updated")
	return nil
}

// DemoUser is the account the development directory starts with.
func DemoUser() domain.User {
	return domain.User{
		ID:           "user1",
		Username:     "Demo User",
		Status:       domain.StatusOffline,
		LastActiveAt: time.Now().UTC(),
	}
}
