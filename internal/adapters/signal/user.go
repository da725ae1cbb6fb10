package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/core"
)

type joinPayload struct {
	UserID   string `json:"userId" validate:"required,max=64"`
	UserName string `json:"userName" validate:"required,max=64"`
}

func (ctl *SignalWSController) handleJoin(ctx context.Context, sid core.ConnID, data []byte) error {
	var p joinPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	sess, err := ctl.Orch.Join(ctx, sid, p.UserID, p.UserName)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("conn", string(sid)).Str("user", string(sess.Identity.UserID)).Msg("join")
	return nil
}
