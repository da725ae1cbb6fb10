// Package domain contains entity without logic, just meta-data
package domain

import (
	"fmt"
	"time"
)

const (
	MaxUserIDLen   = 64
	MaxUsernameLen = 64
)

var (
	ErrUserIDEmpty     = fmt.Errorf("%w: user id empty", ErrValidation)
	ErrUserIDTooLong   = fmt.Errorf("%w: user id too long", ErrValidation)
	ErrUsernameTooLong = fmt.Errorf("%w: username too long", ErrValidation)
	ErrUsernameEmpty   = fmt.Errorf("%w: username empty", ErrValidation)
)

type UserID string

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// User is the directory record of an account. Only presence fields are
// written by the signaling core.
type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"displayName"`
	Status       Status    `json:"status"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Identity is the authenticated user bound to a connection after join.
type Identity struct {
	UserID   UserID `json:"userId"`
	UserName string `json:"userName"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(id, username string) (Identity, error) {
	if len(id) == 0 {
		return Identity{}, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return Identity{}, ErrUserIDTooLong
	}
	if len(username) == 0 {
		return Identity{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	return Identity{UserID: UserID(id), UserName: username}, nil
}
