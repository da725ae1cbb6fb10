package signal

import (
	"context"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type channelPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
}

type messagePayload struct {
	ChannelID string                 `json:"channelId" validate:"required"`
	Message   *domain.MessageContent `json:"message" validate:"required"`
}

type typingPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	IsTyping  bool   `json:"isTyping"`
}

type messageRefPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
}

func (ctl *SignalWSController) handleChatJoin(_ context.Context, sid core.ConnID, data []byte) error {
	var p channelPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.JoinChat(sid, p.ChannelID)
}

func (ctl *SignalWSController) handleChatLeave(_ context.Context, sid core.ConnID, data []byte) error {
	var p channelPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.LeaveChat(sid, p.ChannelID)
}

func (ctl *SignalWSController) handleChatMessage(_ context.Context, sid core.ConnID, data []byte) error {
	var p messagePayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	_, err := ctl.Orch.SendMessage(sid, p.ChannelID, *p.Message)
	return err
}

func (ctl *SignalWSController) handleTyping(_ context.Context, sid core.ConnID, data []byte) error {
	var p typingPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.Typing(sid, p.ChannelID, p.IsTyping)
}

func (ctl *SignalWSController) handleViewed(_ context.Context, sid core.ConnID, data []byte) error {
	var p messageRefPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.MarkViewed(sid, p.ChannelID, p.MessageID)
}

func (ctl *SignalWSController) handlePin(_ context.Context, sid core.ConnID, data []byte) error {
	var p messageRefPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.SetPinned(sid, p.ChannelID, p.MessageID, true)
}

func (ctl *SignalWSController) handleUnpin(_ context.Context, sid core.ConnID, data []byte) error {
	var p messageRefPayload
	if err := ctl.decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.SetPinned(sid, p.ChannelID, p.MessageID, false)
}
