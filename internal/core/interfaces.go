package core

import (
	"context"
	"time"

	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// PublishResult reports delivery stats/backpressure to callers.
type PublishResult struct {
	SendTo  int
	Dropped []ConnID
}

// Broadcaster is the delivery contract components publish through.
// An empty exclude means nobody is skipped.
type Broadcaster interface {
	Broadcast(channel domain.ChannelID, event string, payload any, exclude ConnID) PublishResult
	BroadcastAll(event string, payload any, exclude ConnID) PublishResult
	SendTo(conn ConnID, event string, payload any) error
}

// Fabric is a Broadcaster that also manages channel membership.
type Fabric interface {
	Broadcaster
	JoinChannel(conn ConnID, channel domain.ChannelID) bool
	LeaveChannel(conn ConnID, channel domain.ChannelID) bool
	Members(channel domain.ChannelID) []ConnID
}

// UserDirectory is the external store of accounts. The signaling core only
// reads identities and writes presence.
type UserDirectory interface {
	Lookup(ctx context.Context, id domain.UserID) (*domain.User, error)
	SetStatus(ctx context.Context, id domain.UserID, status domain.Status, at time.Time) error
}
