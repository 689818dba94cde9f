package link

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStateMachine_ValidTransitions(t *testing.T) {
	m := newStateMachine(zerolog.Nop())

	assert.True(t, m.To(Connecting))
	assert.True(t, m.To(Connected))
	assert.True(t, m.To(Disconnecting))
	assert.True(t, m.To(Disconnected))
	assert.Equal(t, Disconnected, m.Current())
}

func TestStateMachine_FaultPath(t *testing.T) {
	m := newStateMachine(zerolog.Nop())

	m.To(Connecting)
	assert.True(t, m.To(Faulted))
	assert.True(t, m.To(Connecting), "reconnect from faulted is legal")
}

func TestStateMachine_RefusesInvalid(t *testing.T) {
	m := newStateMachine(zerolog.Nop())

	assert.False(t, m.To(Connected), "disconnected cannot jump to connected")
	assert.Equal(t, Disconnected, m.Current(), "refused transition must not mutate state")

	m.To(Connecting)
	m.To(Connected)
	assert.False(t, m.To(Connecting))
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "faulted", Faulted.String())
	assert.Equal(t, "unknown", ConnState(99).String())
}
