package arm

import "sync"

// Pose holds the live complete joint state. Readers always observe a full
// snapshot; writers replace or merge under the lock so no partially-updated
// state is ever visible.
type Pose struct {
	mu      sync.RWMutex
	state   State
	changes chan State
}

// NewPose returns a pose with all joints at zero.
func NewPose() *Pose {
	return &Pose{
		state:   Zero(),
		changes: make(chan State, 1),
	}
}

// Snapshot returns an independent copy of the current state.
func (p *Pose) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// Set replaces the complete state.
func (p *Pose) Set(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s.Clone()
	p.notify()
}

// Apply merges a sparse state onto the current one. Absent joints hold
// their value.
func (p *Pose) Apply(partial State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Merge(partial)
	p.notify()
}

// Changes returns a channel receiving a snapshot after each update. The
// channel has capacity one and keeps only the newest snapshot, so a slow
// consumer never blocks a writer.
func (p *Pose) Changes() <-chan State {
	return p.changes
}

// notify is called with p.mu held, which serializes the drain-and-replace.
func (p *Pose) notify() {
	snap := p.state.Clone()
	select {
	case p.changes <- snap:
	default:
		// Drop the stale snapshot, replace with the new one
		select {
		case <-p.changes:
		default:
		}
		p.changes <- snap
	}
}
