package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

const codeRateLimited = "rate_limited"

type errorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(ctl.cfg.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid core.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(context.WithoutCancel(ctx), sid)
		ctl.limiter.Forget(sid)
		cancel()
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait())) }
	if err := extend(); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("readPump set deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = extend()
		ctl.handleSignal(ctx, sid, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.ConnID, data []byte) {
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("conn", string(sid)).Int("bytes", len(data)).Msg("rate limited")
		ctl.reply(sid, core.EventError, errorEvent{Message: "rate limit exceeded", Code: codeRateLimited})
		return
	}
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("bad json")
		ctl.sendError(sid, fmt.Errorf("%w: malformed frame", domain.ErrValidation))
		return
	}

	h, ok := ctl.handlers[env.Type]
	if !ok {
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(sid, fmt.Errorf("%w: unknown event %q", domain.ErrValidation, env.Type))
		return
	}
	if err := h(ctx, sid, env.Data); err != nil {
		log.Info().Err(err).Str("module", "signal").Str("conn", string(sid)).Str("type", env.Type).Msg("event rejected")
		ctl.sendError(sid, err)
	}
}

// decode unmarshals data into v and runs its validate tags.
func (ctl *SignalWSController) decode(data []byte, v any) error {
	if len(data) == 0 {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: bad payload: %v", domain.ErrValidation, err)
	}
	if err := ctl.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %s", domain.ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func (ctl *SignalWSController) sendError(sid core.ConnID, err error) {
	ctl.reply(sid, core.EventError, errorEvent{Message: err.Error(), Code: domain.ErrorCode(err)})
}

func (ctl *SignalWSController) reply(sid core.ConnID, event string, payload any) {
	if err := ctl.Orch.Reply(sid, event, payload); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(sid)).Str("type", event).Msg("reply not delivered")
	}
}
