package orch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/NikolasNeofytou/task-flow/internal/app"
	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

// Orchestrator runs every inbound event to completion under one lock, so
// registry, router, store and call mutations plus their broadcasts never
// interleave between events.
type Orchestrator struct {
	mu sync.Mutex

	Registry *app.Registry
	Router   *app.Router
	Messages *app.MessageStore
	Presence *app.Presence
	Calls    *app.CallManager
}

// New wires the components around one router.
func New(dir core.UserDirectory, policy app.Policy, historyLimit int, globalChannel string) *Orchestrator {
	router := app.NewRouter(policy)
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Router:   router,
		Messages: app.NewMessageStore(router, historyLimit, globalChannel),
		Presence: app.NewPresence(dir, router),
		Calls:    app.NewCallManager(router),
	}
}

// Connect registers a fresh transport endpoint. The connection has no
// identity until Join.
func (o *Orchestrator) Connect(conn core.ConnID, sc core.SignalConnection) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Router.Attach(conn, sc)
}

// Join binds identity to conn and announces it online to everyone else.
// Rebinding conn to another user first releases the previous identity.
func (o *Orchestrator) Join(ctx context.Context, conn core.ConnID, userID, userName string) (app.Session, error) {
	id, err := domain.NewIdentity(userID, userName)
	if err != nil {
		return app.Session{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, err := o.Registry.Lookup(conn); err == nil && prev.Identity.UserID != id.UserID {
		log.Info().Str("module", "orch").Str("conn", string(conn)).Str("from_user", string(prev.Identity.UserID)).Str("user", string(id.UserID)).Msg("rebinding connection")
		o.releaseLocked(ctx, conn, prev.Identity)
	}
	sess := o.Registry.Bind(conn, id)
	o.Presence.SetStatus(ctx, id, domain.StatusOnline, conn)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("user", string(id.UserID)).Str("name", id.UserName).Msg("user joined")
	return sess, nil
}

// Disconnect tears conn down: the session goes, the identity goes offline,
// its calls are left and every channel membership is dropped.
func (o *Orchestrator) Disconnect(ctx context.Context, conn core.ConnID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.Registry.Unbind(conn)
	if ok {
		o.releaseLocked(ctx, conn, sess.Identity)
	}
	left := o.Router.Detach(conn)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Bool("identified", ok).Int("channels", len(left)).Msg("disconnected")
}

// releaseLocked detaches id from conn. A call stays untouched while another
// connection of the same user is still subscribed to it; only conn leaves
// its channel then.
func (o *Orchestrator) releaseLocked(ctx context.Context, conn core.ConnID, id domain.Identity) {
	others := lo.Without(o.Registry.ConnsOf(id.UserID), conn)
	for _, callID := range o.Calls.CallsOf(id.UserID) {
		channel := domain.CallChannel(callID)
		if lo.SomeBy(others, func(c core.ConnID) bool { return o.Router.IsMember(c, channel) }) {
			o.Router.LeaveChannel(conn, channel)
			continue
		}
		if _, err := o.Calls.Leave(conn, callID, id); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("call", string(callID)).Msg("leave call on release")
		}
	}
	o.Presence.SetStatus(ctx, id, domain.StatusOffline, conn)
}

// Session returns the identity bound to conn.
func (o *Orchestrator) Session(conn core.ConnID) (app.Session, error) {
	sess, err := o.Registry.Lookup(conn)
	if err != nil {
		return app.Session{}, domain.ErrAuthenticationRequired
	}
	return sess, nil
}

// Reply sends a private event to conn.
func (o *Orchestrator) Reply(conn core.ConnID, event string, payload any) error {
	return o.Router.SendTo(conn, event, payload)
}
