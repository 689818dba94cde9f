package link

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armlink/pkg/arm"
	"armlink/pkg/proto"
)

// fakeTransport is an in-memory Transport. Inbound chunks are pushed via
// push; outbound lines accumulate in writes.
type fakeTransport struct {
	inbound chan []byte
	errCh   chan error

	mu      sync.Mutex
	writes  []string
	closed  chan struct{}
	isOpen  bool
	openErr error

	pending []byte // reader-goroutine only
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan []byte, 64),
		errCh:   make(chan error, 1),
	}
}

func (t *fakeTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return t.openErr
	}
	t.closed = make(chan struct{})
	t.isOpen = true
	return nil
}

func (t *fakeTransport) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		select {
		case chunk := <-t.inbound:
			t.pending = chunk
		case err := <-t.errCh:
			return 0, err
		case <-closed:
			return 0, io.ErrClosedPipe
		}
	}
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpen {
		return 0, ErrNotOpen
	}
	t.writes = append(t.writes, string(p))
	return len(p), nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isOpen {
		t.isOpen = false
		close(t.closed)
	}
	return nil
}

func (t *fakeTransport) push(s string) {
	t.inbound <- []byte(s)
}

func (t *fakeTransport) written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.writes))
	copy(out, t.writes)
	return out
}

func (t *fakeTransport) countWritten(line string) int {
	n := 0
	for _, w := range t.written() {
		if w == line {
			n++
		}
	}
	return n
}

func testConfig() *arm.Config {
	return &arm.Config{Port: "fake", FeedRate: 500, TickHz: 200, AutoSend: true}
}

func newTestManager(t *testing.T) (*Manager, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	m := NewManager(ft, testConfig(), zerolog.Nop())
	t.Cleanup(func() { _ = m.Disconnect() })
	return m, ft
}

func activityContains(m *Manager, substr string) bool {
	for _, e := range m.Activity().Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestManager_ConnectDisconnectLifecycle(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Connect())
	assert.Equal(t, Connected, m.State())

	err := m.Connect()
	assert.ErrorIs(t, err, ErrBadState, "connect while connected is illegal")

	require.NoError(t, m.Disconnect())
	assert.Equal(t, Disconnected, m.State())

	require.NoError(t, m.Disconnect(), "disconnect is idempotent")
}

func TestManager_ConnectFailureFaults(t *testing.T) {
	m, ft := newTestManager(t)
	ft.openErr = errors.New("no such device")

	err := m.Connect()
	require.Error(t, err)
	assert.Equal(t, Faulted, m.State())
	assert.ErrorIs(t, m.LastErr(), ft.openErr)

	// Reconnect from faulted succeeds once the transport recovers.
	ft.mu.Lock()
	ft.openErr = nil
	ft.mu.Unlock()
	require.NoError(t, m.Connect())
	assert.Equal(t, Connected, m.State())
}

func TestManager_InboundMotionCompletesWithSingleAck(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	// 90 deg at F50000 -> ~108 ms motion, then a 50 ms settle before Ok.
	ft.push("G06 X90.0 F50000\n")

	require.Eventually(t, func() bool {
		return ft.countWritten("Ok\n") == 1
	}, 2*time.Second, 10*time.Millisecond)

	pose := m.Pose().Snapshot()
	assert.InDelta(t, 90.0, arm.ToWire(pose[arm.Theta1]), 0.001)
	assert.False(t, m.MotionActive())

	// No second ack shows up later.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, ft.countWritten("Ok\n"))
}

func TestManager_IdentityMoveStillAcks(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	// No axis deltas: duration floors at 100 ms, ack still goes out once.
	ft.push("G06 F500\n")

	require.Eventually(t, func() bool {
		return ft.countWritten("Ok\n") == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, ft.countWritten("Ok\n"))
}

func TestManager_ByteAtATimeDelivery(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	for _, b := range []byte("G06 U45.0 F50000\n") {
		ft.push(string(b))
	}

	require.Eventually(t, func() bool {
		return arm.ToWire(m.Pose().Snapshot()[arm.Theta5]) > 44.9
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_SecondCommandRejectedMidMotion(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	// 90 deg at F10 -> 9 minutes, plenty of time to collide.
	ft.push("G06 X90.0 F10\n")
	require.Eventually(t, func() bool { return m.MotionActive() }, time.Second, 5*time.Millisecond)

	ft.push("G06 Y45.0 F500\n")
	require.Eventually(t, func() bool {
		return activityContains(m, "motion rejected")
	}, time.Second, 5*time.Millisecond)

	assert.True(t, m.MotionActive(), "in-flight motion survives the rejection")
	assert.Zero(t, ft.countWritten("Ok\n"))
}

func TestManager_DisconnectMidMotionSuppressesAck(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	ft.push("G06 X90.0 F10\n")
	require.Eventually(t, func() bool { return m.MotionActive() }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Disconnect())
	assert.False(t, m.MotionActive(), "disconnect forces the scheduler idle")

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, ft.countWritten("Ok\n"), "an aborted motion must never ack")
}

func TestManager_SendRequiresConnected(t *testing.T) {
	m, ft := newTestManager(t)

	err := m.Send("G06 X1.0 F500\n")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, ft.written())
	assert.True(t, activityContains(m, "send ignored"))
}

func TestManager_SendPose(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	m.Pose().Apply(arm.State{arm.Theta1: arm.FromWire(45)})
	require.NoError(t, m.SendPose())

	require.Eventually(t, func() bool { return len(ft.written()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "G06 X45.0 Y0.0 Z0.0 W0.0 U0.0 V0.0 F500\n", ft.written()[0])
}

func TestManager_AutoSendDebouncesBurst(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	// Rapid-fire edits inside the quiescence window.
	for deg := 1.0; deg <= 5.0; deg++ {
		m.Pose().Apply(arm.State{arm.Theta2: arm.FromWire(deg)})
		m.PoseEdited()
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(ft.written()) > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(250 * time.Millisecond)

	writes := ft.written()
	require.Len(t, writes, 1, "a burst of edits must produce exactly one auto-send")
	assert.Contains(t, writes[0], "Y5.0", "the send reflects only the final state")
}

func TestManager_AutoSendDisabledCancelsPending(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	m.Pose().Apply(arm.State{arm.Theta1: arm.FromWire(10)})
	m.PoseEdited()
	m.SetAutoSend(false)

	time.Sleep(250 * time.Millisecond)
	assert.Empty(t, ft.written())
}

func TestManager_UnrecognizedLineLoggedNotFatal(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	ft.push("HELLO WORLD\n")
	require.Eventually(t, func() bool {
		return activityContains(m, "unrecognized line")
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, Connected, m.State())
}

func TestManager_ReadErrorFaults(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	ft.errCh <- errors.New("device unplugged")
	require.Eventually(t, func() bool {
		return m.State() == Faulted
	}, time.Second, 5*time.Millisecond)
	assert.ErrorContains(t, m.LastErr(), "device unplugged")

	// The faulted session still disconnects cleanly.
	require.NoError(t, m.Disconnect())
	assert.Equal(t, Disconnected, m.State())
}

func TestManager_AckGoesThroughSerializedWriter(t *testing.T) {
	m, ft := newTestManager(t)
	require.NoError(t, m.Connect())

	ft.push("G06 X1.0 F50000\n")
	require.Eventually(t, func() bool {
		return ft.countWritten(proto.EncodeAck()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Every write is a whole line: the single-writer queue never splits one.
	for _, w := range ft.written() {
		assert.True(t, strings.HasSuffix(w, "\n"), "write %q is not a full line", w)
	}
}
