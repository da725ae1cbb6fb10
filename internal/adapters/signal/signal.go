package signal

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/NikolasNeofytou/task-flow/internal/app/orch"
	"github.com/NikolasNeofytou/task-flow/internal/config"
	"github.com/NikolasNeofytou/task-flow/internal/core"
)

type handlerFunc func(ctx context.Context, sid core.ConnID, data []byte) error

type SignalWSController struct {
	Orch     *orch.Orchestrator
	cfg      *config.Config
	validate *validator.Validate
	limiter  *ConnRateLimiter
	handlers map[string]handlerFunc
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	ctl := &SignalWSController{
		Orch:     o,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  NewConnRateLimiter(cfg.RateLimit.Events, cfg.RateLimit.Interval),
	}
	ctl.handlers = map[string]handlerFunc{
		core.EventPing:         ctl.handlePing,
		core.EventJoin:         ctl.handleJoin,
		core.EventUserJoin:     ctl.handleJoin,
		core.EventChatJoin:     ctl.handleChatJoin,
		core.EventChatLeave:    ctl.handleChatLeave,
		core.EventChatMessage:  ctl.handleChatMessage,
		core.EventChatTyping:   ctl.handleTyping,
		core.EventMessageView:  ctl.handleViewed,
		core.EventMessagePin:   ctl.handlePin,
		core.EventMessageUnpin: ctl.handleUnpin,
		core.EventCallStart:    ctl.handleCallStart,
		core.EventCallJoin:     ctl.handleCallJoin,
		core.EventCallLeave:    ctl.handleCallLeave,
		core.EventCallMute:     ctl.handleCallMute,
		core.EventCallSpeaking: ctl.handleCallSpeaking,
	}
	return ctl
}

// WsSignalConn is the websocket endpoint of one connection. Frames are
// queued on send and written by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.ConnID(uuid.NewString())
	logger := log.With().Str("module", "signal").Str("conn", string(sid)).Str("client", c.GetString("client_token")).Logger()
	logger.Info().Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.cfg.SendBuffer)
	ctl.Orch.Connect(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
