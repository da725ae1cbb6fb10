package signal

import (
	"context"

	"github.com/NikolasNeofytou/task-flow/internal/core"
)

func (ctl *SignalWSController) handlePing(_ context.Context, sid core.ConnID, _ []byte) error {
	ctl.reply(sid, core.EventPong, nil)
	return nil
}
