package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

func newTestCalls(t *testing.T, ids ...core.ConnID) (*CallManager, *Router, map[core.ConnID]*recorder) {
	t.Helper()
	r := NewRouter(SimplePolicy{})
	conns := attach(t, r, ids...)
	for _, id := range ids {
		r.JoinChannel(id, domain.ChatChannel("team"))
	}
	m := NewCallManager(r)
	m.now = stepClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m.newID = func() string { return "k1" }
	return m, r, conns
}

func TestCallManager_StartDefaultsToInitiator(t *testing.T) {
	m, r, conns := newTestCalls(t, "ca", "cb")

	call, err := m.Start("ca", ann, "team", "Team", nil)

	require.NoError(t, err)
	require.Equal(t, domain.CallID("k1"), call.ID)
	require.Equal(t, []domain.Participant{{ID: ann.UserID, Name: "Ann"}}, call.Participants)
	require.True(t, r.IsMember("ca", domain.CallChannel("k1")))

	var started domain.CallSession
	conns["cb"].last(t, core.EventCallStarted, &started)
	require.Equal(t, call.ID, started.ID)
	require.Equal(t, "team", started.ChannelID)

	var joined callJoinedEvent
	conns["ca"].last(t, core.EventCallJoined, &joined)
	require.Equal(t, call.ID, joined.CallID)
	require.Zero(t, conns["cb"].count(core.EventCallJoined))
}

func TestCallManager_StartDedupesParticipants(t *testing.T) {
	m, _, _ := newTestCalls(t, "ca")

	call, err := m.Start("ca", ann, "team", "Team", []domain.Participant{
		{ID: "u2", Name: "Bo"},
		{ID: "u2", Name: "Bo again"},
		{ID: "", Name: "nobody"},
		{ID: "u3", Name: "Cy"},
	})

	require.NoError(t, err)
	require.Equal(t, []domain.Participant{{ID: "u2", Name: "Bo"}, {ID: "u3", Name: "Cy"}}, call.Participants)
}

func TestCallManager_StartRequiresHostChannel(t *testing.T) {
	m, _, _ := newTestCalls(t, "ca")

	_, err := m.Start("ca", ann, "", "", nil)

	require.ErrorIs(t, err, domain.ErrValidation)
	require.Zero(t, m.Count())
}

// Ann starts, Bo joins, Ann leaves, Bo leaves.
func TestCallManager_Lifecycle(t *testing.T) {
	m, r, conns := newTestCalls(t, "ca", "cb")

	_, err := m.Start("ca", ann, "team", "Team", nil)
	require.NoError(t, err)

	call, err := m.Join("cb", "k1", bo)
	require.NoError(t, err)
	require.Len(t, call.Participants, 2)

	var joined participantEvent
	conns["ca"].last(t, core.EventParticipantJoined, &joined)
	require.Equal(t, bo.UserID, joined.UserID)

	var boJoined callJoinedEvent
	conns["cb"].last(t, core.EventCallJoined, &boJoined)
	require.Equal(t, domain.CallID("k1"), boJoined.CallID)
	require.Equal(t, []domain.Participant{{ID: "u1", Name: "Ann"}, {ID: "u2", Name: "Bo"}}, boJoined.Call.Participants)
	require.Zero(t, conns["cb"].count(core.EventParticipantJoined))

	ended, err := m.Leave("ca", "k1", ann)
	require.NoError(t, err)
	require.False(t, ended)
	require.False(t, r.IsMember("ca", domain.CallChannel("k1")))

	var left participantEvent
	conns["cb"].last(t, core.EventParticipantLeft, &left)
	require.Equal(t, ann.UserID, left.UserID)

	ended, err = m.Leave("cb", "k1", bo)
	require.NoError(t, err)
	require.True(t, ended)
	require.False(t, m.Active("k1"))

	for _, id := range []core.ConnID{"ca", "cb"} {
		var ev callEndedEvent
		conns[id].last(t, core.EventCallEnded, &ev)
		require.Equal(t, domain.CallID("k1"), ev.CallID)
	}

	_, err = m.Join("ca", "k1", ann)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCallManager_DuplicateJoinIsSilent(t *testing.T) {
	m, _, conns := newTestCalls(t, "ca", "cb")
	_, err := m.Start("ca", ann, "team", "Team", nil)
	require.NoError(t, err)
	_, err = m.Join("cb", "k1", bo)
	require.NoError(t, err)
	conns["ca"].reset()

	call, err := m.Join("cb", "k1", bo)

	require.NoError(t, err)
	require.Len(t, call.Participants, 2)
	require.Zero(t, conns["ca"].count(core.EventParticipantJoined))
	require.Equal(t, 2, conns["cb"].count(core.EventCallJoined))
}

func TestCallManager_LeaveByNonParticipant(t *testing.T) {
	m, r, conns := newTestCalls(t, "ca", "cc")
	_, err := m.Start("ca", ann, "team", "Team", nil)
	require.NoError(t, err)
	r.JoinChannel("cc", domain.CallChannel("k1"))

	ended, err := m.Leave("cc", "k1", cy)

	require.NoError(t, err)
	require.False(t, ended)
	require.True(t, m.Active("k1"))
	require.False(t, r.IsMember("cc", domain.CallChannel("k1")))
	require.Zero(t, conns["ca"].count(core.EventParticipantLeft))
}

func TestCallManager_UnknownCall(t *testing.T) {
	m, _, conns := newTestCalls(t, "ca")

	_, err := m.Leave("ca", "nope", ann)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, m.Mute("ca", "nope", ann, true), domain.ErrNotFound)
	require.ErrorIs(t, m.Speaking("ca", "nope", ann, true), domain.ErrNotFound)
	_, err = m.Get("nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, conns["ca"].events())
}

func TestCallManager_MuteAndSpeakingRelay(t *testing.T) {
	m, _, conns := newTestCalls(t, "ca", "cb")
	_, err := m.Start("ca", ann, "team", "Team", nil)
	require.NoError(t, err)
	_, err = m.Join("cb", "k1", bo)
	require.NoError(t, err)

	require.NoError(t, m.Mute("ca", "k1", ann, true))
	require.NoError(t, m.Speaking("ca", "k1", ann, true))

	var muted mutedEvent
	conns["cb"].last(t, core.EventParticipantMuted, &muted)
	require.True(t, muted.IsMuted)
	require.Equal(t, ann.UserID, muted.UserID)

	var speaking speakingEvent
	conns["cb"].last(t, core.EventParticipantSpeaking, &speaking)
	require.True(t, speaking.IsSpeaking)

	require.Zero(t, conns["ca"].count(core.EventParticipantMuted))
	require.Zero(t, conns["ca"].count(core.EventParticipantSpeaking))
}

func TestCallManager_CallsOf(t *testing.T) {
	m, _, _ := newTestCalls(t, "ca", "cb")
	_, err := m.Start("ca", ann, "team", "Team", nil)
	require.NoError(t, err)

	require.Equal(t, []domain.CallID{"k1"}, m.CallsOf(ann.UserID))
	require.Empty(t, m.CallsOf(bo.UserID))
}

func TestCallManager_EndDropsEverySubscriber(t *testing.T) {
	m, r, _ := newTestCalls(t, "ca", "ca2")
	_, err := m.Start("ca", ann, "team", "Team", nil)
	require.NoError(t, err)
	_, err = m.Join("ca2", "k1", ann)
	require.NoError(t, err)
	require.True(t, r.IsMember("ca2", domain.CallChannel("k1")))

	ended, err := m.Leave("ca", "k1", ann)

	require.NoError(t, err)
	require.True(t, ended)
	require.Empty(t, r.Members(domain.CallChannel("k1")))
	require.Equal(t, []domain.ChannelID{domain.ChatChannel("team")}, r.ChannelsOf("ca2"))
}
