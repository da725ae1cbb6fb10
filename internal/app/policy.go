package app

import (
	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send queue is full.
// An empty channel means the frame was an unscoped broadcast.
type Policy interface {
	OnBackPressure(channel domain.ChannelID, conn core.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.ChannelID, core.ConnID) BackpressureAction {
	return KickMember
}
