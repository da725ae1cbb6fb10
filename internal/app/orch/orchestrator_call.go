package orch

import (
	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

func (o *Orchestrator) StartCall(conn core.ConnID, channelID, channelName string, participants []domain.Participant) (domain.CallSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return domain.CallSession{}, err
	}
	return o.Calls.Start(conn, sess.Identity, channelID, channelName, participants)
}

func (o *Orchestrator) JoinCall(conn core.ConnID, callID domain.CallID) (domain.CallSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return domain.CallSession{}, err
	}
	return o.Calls.Join(conn, callID, sess.Identity)
}

func (o *Orchestrator) LeaveCall(conn core.ConnID, callID domain.CallID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return err
	}
	_, err = o.Calls.Leave(conn, callID, sess.Identity)
	return err
}

func (o *Orchestrator) Mute(conn core.ConnID, callID domain.CallID, muted bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return err
	}
	return o.Calls.Mute(conn, callID, sess.Identity, muted)
}

func (o *Orchestrator) Speaking(conn core.ConnID, callID domain.CallID, speaking bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return err
	}
	return o.Calls.Speaking(conn, callID, sess.Identity, speaking)
}
