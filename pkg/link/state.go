package link

import (
	"sync"

	"github.com/rs/zerolog"
)

// ConnState is the connection lifecycle state. Transitions happen only
// through the state machine; there is no external mutation.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Disconnecting
	Faulted
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

var validTransitions = map[ConnState][]ConnState{
	Disconnected:  {Connecting},
	Connecting:    {Connected, Faulted, Disconnecting},
	Connected:     {Disconnecting, Faulted},
	Disconnecting: {Disconnected},
	Faulted:       {Connecting, Disconnecting},
}

// stateMachine guards ConnState behind a transition validity table.
// Invalid transitions are refused and logged rather than applied.
type stateMachine struct {
	mu    sync.Mutex
	state ConnState
	log   zerolog.Logger
}

func newStateMachine(log zerolog.Logger) *stateMachine {
	return &stateMachine{state: Disconnected, log: log}
}

func (m *stateMachine) Current() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// To attempts the transition and reports whether it was applied.
func (m *stateMachine) To(next ConnState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, allowed := range validTransitions[m.state] {
		if next == allowed {
			m.log.Debug().
				Stringer("from", m.state).
				Stringer("to", next).
				Msg("connection state changed")
			m.state = next
			return true
		}
	}
	m.log.Warn().
		Stringer("from", m.state).
		Stringer("to", next).
		Msg("invalid connection state transition refused")
	return false
}
