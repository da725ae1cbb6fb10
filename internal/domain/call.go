package domain

import (
	"time"

	"github.com/samber/lo"
)

type CallID string

// Participant is a roster entry of a call, keyed by ID.
type Participant struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

func ParticipantOf(id Identity) Participant {
	return Participant{ID: id.UserID, Name: id.UserName}
}

// CallSession is an ad-hoc audio call. It only exists while its roster is non-empty.
type CallSession struct {
	ID           CallID        `json:"id"`
	ChannelID    string        `json:"channelId"`
	ChannelName  string        `json:"channelName"`
	StartTime    time.Time     `json:"startTime"`
	Participants []Participant `json:"participants"`
}

func (c *CallSession) Has(id UserID) bool {
	return lo.ContainsBy(c.Participants, func(p Participant) bool { return p.ID == id })
}

// Add appends p unless a participant with the same ID is already present.
func (c *CallSession) Add(p Participant) bool {
	if c.Has(p.ID) {
		return false
	}
	c.Participants = append(c.Participants, p)
	return true
}

func (c *CallSession) Remove(id UserID) bool {
	if !c.Has(id) {
		return false
	}
	c.Participants = lo.Reject(c.Participants, func(p Participant, _ int) bool { return p.ID == id })
	return true
}

func (c *CallSession) Empty() bool { return len(c.Participants) == 0 }

func (c *CallSession) Clone() CallSession {
	out := *c
	out.Participants = append([]Participant{}, c.Participants...)
	return out
}
