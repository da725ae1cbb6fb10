package signal_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/NikolasNeofytou/task-flow/internal/adapters/signal"
	"github.com/NikolasNeofytou/task-flow/internal/app"
	"github.com/NikolasNeofytou/task-flow/internal/app/orch"
	"github.com/NikolasNeofytou/task-flow/internal/config"
	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/directory"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type errorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type client struct {
	t  *testing.T
	ws *websocket.Conn
}

func newServer(t *testing.T, tune func(*config.Config)) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.RateLimit.Events = 0
	if tune != nil {
		tune(cfg)
	}
	o := orch.New(directory.NewMemory(), app.SimplePolicy{}, 0, "")
	ctl := signal.NewSignalWSController(o, cfg)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(context.Background(), c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, o
}

func dial(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return &client{t: t, ws: ws}
}

func (c *client) send(event string, data any) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteJSON(core.Envelope{Type: event, Data: raw}))
}

// expect reads frames until one of type event arrives.
func (c *client) expect(event string) core.Envelope {
	c.t.Helper()
	for {
		require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env core.Envelope
		require.NoError(c.t, c.ws.ReadJSON(&env), "waiting for %s", event)
		if env.Type == event {
			return env
		}
	}
}

func (c *client) expectError(code string) {
	c.t.Helper()
	var e errorEvent
	require.NoError(c.t, json.Unmarshal(c.expect(core.EventError).Data, &e))
	require.Equal(c.t, code, e.Code)
}

// sync round-trips a ping so every earlier frame has been handled.
func (c *client) sync() {
	c.t.Helper()
	c.send(core.EventPing, nil)
	c.expect(core.EventPong)
}

func (c *client) join(id, name string) {
	c.t.Helper()
	c.send(core.EventJoin, map[string]string{"userId": id, "userName": name})
	c.sync()
}

func TestSignal_PingPong(t *testing.T) {
	srv, _ := newServer(t, nil)
	c := dial(t, srv)

	c.sync()
}

func TestSignal_RejectsBeforeJoin(t *testing.T) {
	srv, _ := newServer(t, nil)
	c := dial(t, srv)

	c.send(core.EventChatMessage, map[string]any{"channelId": "team", "message": map[string]string{"text": "hi"}})

	c.expectError(domain.CodeAuthenticationRequired)
}

func TestSignal_ValidationErrors(t *testing.T) {
	srv, _ := newServer(t, nil)
	c := dial(t, srv)

	c.send("chat:shout", map[string]string{})
	c.expectError(domain.CodeValidation)

	c.send(core.EventJoin, map[string]string{"userId": "u1"})
	c.expectError(domain.CodeValidation)

	c.join("u1", "Ann")
	c.send(core.EventCallMute, map[string]string{"callId": "k1"})
	c.expectError(domain.CodeValidation)

	c.send(core.EventCallMute, map[string]any{"callId": "k1", "isMuted": true})
	c.expectError(domain.CodeNotFound)
}

func TestSignal_ChatFlow(t *testing.T) {
	srv, _ := newServer(t, nil)
	ann := dial(t, srv)
	bo := dial(t, srv)
	ann.join("u1", "Ann")
	bo.join("u2", "Bo")
	ann.expect(core.EventUserOnline)

	ann.send(core.EventChatJoin, map[string]string{"channelId": "team"})
	bo.send(core.EventChatJoin, map[string]string{"channelId": "team"})
	ann.sync()
	bo.sync()

	ann.send(core.EventChatMessage, map[string]any{"channelId": "team", "message": map[string]string{"text": "hello"}})

	var got domain.Message
	require.NoError(t, json.Unmarshal(bo.expect(core.EventChatMessage).Data, &got))
	require.Equal(t, "hello", got.Text)
	require.Equal(t, "Ann", got.Author)
	require.Equal(t, domain.MessageText, got.Type)
	ann.expect(core.EventChatMessage)

	bo.send(core.EventMessageView, map[string]string{"channelId": "team", "messageId": got.ID})
	ann.expect(core.EventMessageViewed)

	bo.send(core.EventChatTyping, map[string]any{"channelId": "team", "isTyping": true})
	ann.expect(core.EventChatTyping)
}

func TestSignal_DisconnectLeavesCall(t *testing.T) {
	srv, o := newServer(t, nil)
	ann := dial(t, srv)
	bo := dial(t, srv)
	ann.join("u1", "Ann")
	bo.join("u2", "Bo")
	ann.send(core.EventChatJoin, map[string]string{"channelId": "team"})
	bo.send(core.EventChatJoin, map[string]string{"channelId": "team"})
	ann.sync()
	bo.sync()

	ann.send(core.EventCallStart, map[string]string{"channelId": "team", "channelName": "Team"})
	var started domain.CallSession
	require.NoError(t, json.Unmarshal(bo.expect(core.EventCallStarted).Data, &started))

	bo.send(core.EventCallJoin, map[string]string{"callId": string(started.ID)})
	bo.expect(core.EventCallJoined)
	ann.expect(core.EventParticipantJoined)

	require.NoError(t, ann.ws.Close())

	bo.expect(core.EventParticipantLeft)
	bo.expect(core.EventUserOffline)

	call, err := o.Calls.Get(started.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.Participant{{ID: "u2", Name: "Bo"}}, call.Participants)

	bo.send(core.EventCallLeave, map[string]string{"callId": string(started.ID)})
	bo.expect(core.EventCallEnded)
}

func TestSignal_RateLimit(t *testing.T) {
	srv, _ := newServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Events = 2
		cfg.RateLimit.Interval = time.Minute
	})
	c := dial(t, srv)

	c.send(core.EventPing, nil)
	c.send(core.EventPing, nil)
	c.send(core.EventPing, nil)

	c.expect(core.EventPong)
	c.expect(core.EventPong)
	c.expectError("rate_limited")
}

func TestSignal_RateLimitCountsMalformedFrames(t *testing.T) {
	srv, _ := newServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Events = 2
		cfg.RateLimit.Interval = time.Minute
	})
	c := dial(t, srv)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	}

	c.expectError(domain.CodeValidation)
	c.expectError(domain.CodeValidation)
	c.expectError("rate_limited")
}
