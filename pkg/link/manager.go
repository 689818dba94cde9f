package link

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"armlink/pkg/arm"
	"armlink/pkg/motion"
	"armlink/pkg/proto"
)

// AckSettleDelay is the pause between a motion completing and the Ok line
// going out, so the final pose reaches the consumer before the ack claims
// the motion is done.
const AckSettleDelay = 50 * time.Millisecond

// activityDepth bounds the diagnostic activity log.
const activityDepth = 100

// Manager owns the transport lifecycle and is the sole writer on it. One
// inbound read loop feeds the line reassembler and routes decoded motion
// commands to the scheduler; one write loop drains a queue so manual
// sends, auto-sends, and acks never interleave mid-line; one tick loop
// advances the active trajectory into the live pose.
type Manager struct {
	transport Transport
	cfg       *arm.Config
	log       zerolog.Logger

	pose     *arm.Pose
	sched    *motion.Scheduler
	activity *Activity
	sm       *stateMachine
	debounce *motion.Debouncer
	writeCh  chan string

	mu       sync.Mutex // guards cancel and autoSend
	cancel   context.CancelFunc
	autoSend bool

	// lastErr has its own lock: fault runs on the read/write loops, which
	// Disconnect waits on while holding mu.
	errMu   sync.Mutex
	lastErr error

	wg sync.WaitGroup
}

// NewManager wires a manager around the given transport. Nothing touches
// the transport until Connect.
func NewManager(t Transport, cfg *arm.Config, log zerolog.Logger) *Manager {
	if cfg.TickHz <= 0 {
		cfg.TickHz = 60
	}
	if cfg.FeedRate <= 0 {
		cfg.FeedRate = arm.DefaultFeedRate
	}
	m := &Manager{
		transport: t,
		cfg:       cfg,
		log:       log,
		pose:      arm.NewPose(),
		sched:     motion.NewScheduler(log),
		activity:  NewActivity(activityDepth),
		sm:        newStateMachine(log),
		writeCh:   make(chan string, 16),
		autoSend:  cfg.AutoSend,
	}
	m.debounce = motion.NewDebouncer(motion.AutoSendWindow, m.autoSendNow)
	return m
}

// Connect opens the transport and starts the read, write, and tick loops.
// Legal only from Disconnected or Faulted; a failed open records the error
// and leaves the connection Faulted.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sm.To(Connecting) {
		return fmt.Errorf("%w: connect while %s", ErrBadState, m.sm.Current())
	}
	// Loops from a faulted session are already cancelled; let them drain.
	m.wg.Wait()

	if err := m.transport.Open(); err != nil {
		m.setLastErr(err)
		m.sm.To(Faulted)
		m.activity.Add(LevelError, "connect failed: %v", err)
		m.log.Error().Err(err).Msg("connect failed")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.sm.To(Connected)
	m.activity.Add(LevelInfo, "connected")
	m.log.Info().Msg("connected")

	m.wg.Add(3)
	// Fresh reassembly buffer: stale partial lines die with their session.
	go m.readLoop(ctx, cancel, &proto.Reader{})
	go m.writeLoop(ctx, cancel)
	go m.tickLoop(ctx)
	return nil
}

// Disconnect tears the session down: pending auto-send cancelled, any
// in-flight trajectory aborted silently (no ack), then reader, writer,
// and transport released in that order. Idempotent; individual release
// failures are logged, never escalated, and the state always ends
// Disconnected.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sm.Current() == Disconnected {
		return nil
	}
	m.sm.To(Disconnecting)

	m.debounce.Stop()
	m.sched.Cancel()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if err := m.transport.Close(); err != nil {
		m.activity.Add(LevelWarn, "close transport: %v", err)
		m.log.Warn().Err(err).Msg("close transport")
	}
	m.wg.Wait()

	// Discard writes queued by the dead session.
	for {
		select {
		case <-m.writeCh:
			continue
		default:
		}
		break
	}

	m.sm.To(Disconnected)
	m.activity.Add(LevelInfo, "disconnected")
	m.log.Info().Msg("disconnected")
	return nil
}

// Send queues one encoded line for the single serialized write path.
// Rejected as a logged no-op unless Connected.
func (m *Manager) Send(line string) error {
	if m.sm.Current() != Connected {
		m.activity.Add(LevelWarn, "send ignored: not connected")
		return ErrNotConnected
	}
	select {
	case m.writeCh <- line:
		m.activity.Add(LevelInfo, "sent: %s", strings.TrimSpace(line))
		return nil
	default:
		// Transport stalled long enough to fill the queue.
		m.activity.Add(LevelWarn, "write queue full, line dropped")
		return fmt.Errorf("link: write queue full")
	}
}

// SendPose encodes the current pose at the configured feed rate and sends
// it.
func (m *Manager) SendPose() error {
	return m.Send(proto.Encode(m.pose.Snapshot(), m.cfg.FeedRate))
}

// PoseEdited schedules a debounced auto-send after a local pose edit. A
// newer edit inside the quiescence window cancels the older send, so only
// the final state of a burst goes out.
func (m *Manager) PoseEdited() {
	m.mu.Lock()
	enabled := m.autoSend
	m.mu.Unlock()
	if !enabled || m.sm.Current() != Connected {
		return
	}
	m.debounce.Trigger()
}

// SetAutoSend toggles debounced auto-send; disabling cancels any pending
// send immediately.
func (m *Manager) SetAutoSend(enabled bool) {
	m.mu.Lock()
	m.autoSend = enabled
	m.mu.Unlock()
	if !enabled {
		m.debounce.Stop()
	}
}

// AutoSend reports whether auto-send is enabled.
func (m *Manager) AutoSend() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoSend
}

// State returns the current connection state.
func (m *Manager) State() ConnState {
	return m.sm.Current()
}

// LastErr returns the error that faulted the connection, if any.
func (m *Manager) LastErr() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastErr(err error) {
	m.errMu.Lock()
	m.lastErr = err
	m.errMu.Unlock()
}

// Pose returns the live pose container shared with the consumer.
func (m *Manager) Pose() *arm.Pose {
	return m.pose
}

// Activity returns the bounded diagnostic log.
func (m *Manager) Activity() *Activity {
	return m.activity
}

// MotionActive reports whether a trajectory is in flight.
func (m *Manager) MotionActive() bool {
	return m.sched.Active()
}

// readLoop pipes transport bytes through the line reassembler. No read
// timeout: a stalled transport blocks here until disconnect closes it.
func (m *Manager) readLoop(ctx context.Context, cancel context.CancelFunc, reader *proto.Reader) {
	defer m.wg.Done()
	buf := make([]byte, 256)
	for {
		n, err := m.transport.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				m.fault(cancel, fmt.Errorf("read: %w", err))
			}
			return
		}
		for _, line := range reader.Feed(buf[:n]) {
			m.handleLine(line)
		}
	}
}

// handleLine routes one complete inbound line. Unrecognized traffic and
// rejected commands are logged and dropped, never escalated.
func (m *Manager) handleLine(line string) {
	cmd, ok := proto.Decode(line)
	if !ok {
		m.activity.Add(LevelWarn, "unrecognized line: %q", line)
		m.log.Debug().Str("line", line).Msg("unrecognized line")
		return
	}
	if err := m.sched.Accept(cmd, m.pose.Snapshot(), time.Now()); err != nil {
		m.activity.Add(LevelWarn, "motion rejected: %v", err)
		return
	}
	m.activity.Add(LevelInfo, "motion accepted: %d joint(s), F%.0f", len(cmd.Target), cmd.Feed)
}

// writeLoop is the sole transport writer; draining one queue guarantees
// lines never interleave their bytes.
func (m *Manager) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-m.writeCh:
			if _, err := m.transport.Write([]byte(line)); err != nil {
				if ctx.Err() == nil {
					m.fault(cancel, fmt.Errorf("write: %w", err))
				}
				return
			}
		}
	}
}

// tickLoop drives the scheduler. Progress is wall-clock based in the
// scheduler, so tick jitter never distorts motion duration.
func (m *Manager) tickLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Second / time.Duration(m.cfg.TickHz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			state, done := m.sched.Advance(now)
			if state != nil {
				m.pose.Set(state)
			}
			if done {
				m.activity.Add(LevelInfo, "motion complete")
				go m.ackAfterSettle(ctx)
			}
		}
	}
}

// ackAfterSettle sends Ok once the settle delay has passed, unless the
// session ended first.
func (m *Manager) ackAfterSettle(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(AckSettleDelay):
	}
	if err := m.Send(proto.EncodeAck()); err != nil {
		m.log.Warn().Err(err).Msg("ack not sent")
	}
}

// fault records a transport failure and forces the session down. The
// process never dies over a link error; the connection just ends Faulted
// until the next Connect.
func (m *Manager) fault(cancel context.CancelFunc, err error) {
	m.setLastErr(err)

	m.sm.To(Faulted)
	m.activity.Add(LevelError, "%v", err)
	m.log.Error().Err(err).Msg("transport fault")

	m.sched.Cancel()
	m.debounce.Stop()
	cancel()
	if cerr := m.transport.Close(); cerr != nil {
		m.log.Warn().Err(cerr).Msg("close after fault")
	}
}

// autoSendNow is the debouncer callback: it reads the pose at fire time,
// so a burst of edits sends only the final state.
func (m *Manager) autoSendNow() {
	if m.sm.Current() != Connected {
		return
	}
	if err := m.SendPose(); err != nil {
		m.log.Warn().Err(err).Msg("auto-send failed")
	}
}
