package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RoundTrip(t *testing.T) {
	s := NewSession()
	assert.Empty(t, s.Pending())

	require.NoError(t, s.AppendUser("X"))
	assert.Equal(t, "X", s.Pending())

	require.NoError(t, s.AppendAssistant("Y"))
	assert.Empty(t, s.Pending())

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "X"}, turns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "Y"}, turns[1])
}

func TestSession_AssistantWithoutPendingTurn(t *testing.T) {
	s := NewSession()
	require.ErrorIs(t, s.AppendAssistant("Y"), ErrNoPendingTurn)

	require.NoError(t, s.AppendUser("X"))
	require.NoError(t, s.AppendAssistant("Y"))
	require.ErrorIs(t, s.AppendAssistant("Y again"), ErrNoPendingTurn)
}

// An empty user message is still a pending turn: the reply must attach to it
// and a second user turn must be refused until it does.
func TestSession_EmptyUserTurnIsStillPending(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.AppendUser(""))
	require.ErrorIs(t, s.AppendUser("next"), ErrTurnInFlight)

	require.NoError(t, s.AppendAssistant("Y"))
	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: ""}, turns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "Y"}, turns[1])
}

func TestSession_SecondUserTurnWhileUnanswered(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.AppendUser("first"))
	require.ErrorIs(t, s.AppendUser("second"), ErrTurnInFlight)
	assert.Equal(t, "first", s.Pending())
}

func TestSession_TurnsIsACopy(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.AppendUser("X"))
	turns := s.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "X", s.Pending())
}
