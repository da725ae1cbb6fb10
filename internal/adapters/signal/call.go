package signal

import (
	"context"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type callStartPayload struct {
	ChannelID    string               `json:"channelId" validate:"required"`
	ChannelName  string               `json:"channelName"`
	Participants []domain.Participant `json:"participants"`
}

type callRefPayload struct {
	CallID string `json:"callId" validate:"required"`
}

type mutePayload struct {
	CallID  string `json:"callId" validate:"required"`
	IsMuted *bool  `json:"isMuted" validate:"required"`
}

type speakingPayload struct {
	CallID     string `json:"callId" validate:"required"`
	IsSpeaking *bool  `json:"isSpeaking" validate:"required"`
}

func (ctl *SignalWSController) handleCallStart(_ context.Context, sid core.ConnID, data []byte) error {
	var p callStartPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	_, err := ctl.Orch.StartCall(sid, p.ChannelID, p.ChannelName, p.Participants)
	return err
}

func (ctl *SignalWSController) handleCallJoin(_ context.Context, sid core.ConnID, data []byte) error {
	var p callRefPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	_, err := ctl.Orch.JoinCall(sid, domain.CallID(p.CallID))
	return err
}

func (ctl *SignalWSController) handleCallLeave(_ context.Context, sid core.ConnID, data []byte) error {
	var p callRefPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.LeaveCall(sid, domain.CallID(p.CallID))
}

func (ctl *SignalWSController) handleCallMute(_ context.Context, sid core.ConnID, data []byte) error {
	var p mutePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Mute(sid, domain.CallID(p.CallID), *p.IsMuted)
}

func (ctl *SignalWSController) handleCallSpeaking(_ context.Context, sid core.ConnID, data []byte) error {
	var p speakingPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Speaking(sid, domain.CallID(p.CallID), *p.IsSpeaking)
}
