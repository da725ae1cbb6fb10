package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

func TestCallSession_RosterIsASet(t *testing.T) {
	c := domain.CallSession{ID: "k1", ChannelID: "team"}
	require.True(t, c.Empty())

	require.True(t, c.Add(domain.Participant{ID: "u1", Name: "Ann"}))
	require.False(t, c.Add(domain.Participant{ID: "u1", Name: "Ann again"}))
	require.True(t, c.Add(domain.Participant{ID: "u2", Name: "Bo"}))
	require.Equal(t, []domain.Participant{{ID: "u1", Name: "Ann"}, {ID: "u2", Name: "Bo"}}, c.Participants)

	require.False(t, c.Remove("u3"))
	require.True(t, c.Remove("u1"))
	require.False(t, c.Has("u1"))
	require.True(t, c.Has("u2"))
	require.True(t, c.Remove("u2"))
	require.True(t, c.Empty())
}

func TestCallSession_CloneIsDetached(t *testing.T) {
	c := domain.CallSession{ID: "k1"}
	c.Add(domain.ParticipantOf(domain.Identity{UserID: "u1", UserName: "Ann"}))

	snap := c.Clone()
	c.Add(domain.Participant{ID: "u2", Name: "Bo"})

	require.Len(t, snap.Participants, 1)
	require.Equal(t, "Ann", snap.Participants[0].Name)
}
