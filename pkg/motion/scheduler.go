// Package motion turns accepted motion commands into time-parameterized
// joint trajectories and paces them by feed rate.
package motion

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"armlink/pkg/arm"
	"armlink/pkg/proto"
)

// ErrBusy is returned when a motion command arrives while a trajectory is
// in flight. Commands are dropped, never queued.
var ErrBusy = errors.New("motion: trajectory already active")

// MinDuration is the floor applied to every trajectory, guarding against
// degenerate durations when the largest delta is zero or near-zero.
const MinDuration = 100 * time.Millisecond

// Trajectory is the linear path from a start pose to a sparse target at a
// fixed feed rate. The scheduler owns it from acceptance to completion or
// cancellation.
type Trajectory struct {
	Start     arm.State // complete snapshot at acceptance
	Target    arm.State // sparse; absent joints hold their start value
	Feed      float64   // degrees per minute
	StartedAt time.Time
	Duration  time.Duration
}

// Scheduler runs at most one trajectory at a time. It holds no timer of
// its own: the owner drives it by calling Advance from a periodic tick,
// and progress is wall-clock based so tick jitter cannot stretch or
// shrink the overall duration.
type Scheduler struct {
	mu   sync.Mutex
	traj *Trajectory
	log  zerolog.Logger
}

// NewScheduler returns an idle scheduler.
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Accept starts a trajectory from start toward cmd.Target. The pacing axis
// is the joint with the largest displacement, so all axes arrive together:
// duration = maxDelta / feed, floored at MinDuration. Returns ErrBusy while
// a trajectory is active; the in-flight trajectory is untouched.
func (s *Scheduler) Accept(cmd proto.MotionCommand, start arm.State, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.traj != nil {
		s.log.Warn().Msg("motion command rejected: trajectory active")
		return ErrBusy
	}

	feed := cmd.Feed
	if feed <= 0 {
		feed = arm.DefaultFeedRate
	}
	maxDelta := 0.0
	for j, tgt := range cmd.Target {
		d := math.Abs(arm.ToWire(tgt) - arm.ToWire(start[j]))
		if d > maxDelta {
			maxDelta = d
		}
	}
	dur := time.Duration(maxDelta / feed * float64(time.Minute))
	if dur < MinDuration {
		dur = MinDuration
	}

	s.traj = &Trajectory{
		Start:     start.Clone(),
		Target:    cmd.Target.Clone(),
		Feed:      feed,
		StartedAt: now,
		Duration:  dur,
	}
	s.log.Debug().
		Float64("max_delta_deg", maxDelta).
		Dur("duration", dur).
		Msg("trajectory accepted")
	return nil
}

// Advance computes the pose at now. While idle it returns (nil, false).
// While active it returns the complete interpolated pose; when progress
// reaches 1 the scheduler goes idle and reports done exactly once.
func (s *Scheduler) Advance(now time.Time) (arm.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.traj
	if t == nil {
		return nil, false
	}

	progress := float64(now.Sub(t.StartedAt)) / float64(t.Duration)
	if progress < 0 {
		progress = 0
	}
	if progress >= 1 {
		progress = 1
	}

	// Linear interpolation, no easing: motion stays feed-rate accurate.
	out := t.Start.Clone()
	for j, tgt := range t.Target {
		out[j] = t.Start[j] + (tgt-t.Start[j])*progress
	}

	if progress == 1 {
		s.traj = nil
		return out, true
	}
	return out, false
}

// Cancel aborts any active trajectory without a completion report.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.traj != nil {
		s.log.Debug().Msg("trajectory cancelled")
		s.traj = nil
	}
}

// Active reports whether a trajectory is in flight.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traj != nil
}

// Current returns a copy of the in-flight trajectory, or nil while idle.
func (s *Scheduler) Current() *Trajectory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.traj == nil {
		return nil
	}
	c := *s.traj
	c.Start = s.traj.Start.Clone()
	c.Target = s.traj.Target.Clone()
	return &c
}
