package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type presenceEvent struct {
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
}

// Presence turns identity status changes into global broadcasts.
type Presence struct {
	dir core.UserDirectory
	out core.Broadcaster
	now func() time.Time
}

func NewPresence(dir core.UserDirectory, out core.Broadcaster) *Presence {
	return &Presence{dir: dir, out: out, now: time.Now}
}

// SetStatus persists status through the directory and notifies every live
// connection except exclude. Presence is not scoped to channels.
func (p *Presence) SetStatus(ctx context.Context, id domain.Identity, status domain.Status, exclude core.ConnID) core.PublishResult {
	logger := log.With().Str("module", "app.presence").Str("user", string(id.UserID)).Str("status", string(status)).Logger()
	if p.dir != nil {
		err := p.dir.SetStatus(ctx, id.UserID, status, p.now().UTC())
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			logger.Debug().Msg("user not in directory, status not persisted")
		default:
			logger.Warn().Err(err).Msg("persist status")
		}
	}

	event := core.EventUserOnline
	if status == domain.StatusOffline {
		event = core.EventUserOffline
	}
	res := p.out.BroadcastAll(event, presenceEvent{UserID: id.UserID, UserName: id.UserName}, exclude)
	logger.Info().Int("notified", res.SendTo).Msg("presence published")
	return res
}
