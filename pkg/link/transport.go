// Package link owns the byte-stream connection to the arm controller: the
// transport lifecycle, the inbound read loop, the single serialized write
// path, and the activity log.
package link

import (
	"errors"
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// Sentinel errors for callers that branch on link failures.
var (
	ErrNotOpen      = errors.New("link: transport not open")
	ErrNotConnected = errors.New("link: not connected")
	ErrBadState     = errors.New("link: operation not allowed in current state")
)

// UART framing fixed by the controller firmware: 115200 baud, 8 data bits,
// 1 stop bit, no parity.
const (
	BaudRate = 115200
	DataBits = 8
)

// Transport is the byte-stream capability the manager drives. Read blocks
// until data arrives, end of stream, or Close; implementations must
// unblock a pending Read on Close.
type Transport interface {
	Open() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// SerialTransport adapts a serial port to Transport with the fixed arm
// framing.
type SerialTransport struct {
	Path string

	mu   sync.Mutex
	port serial.Port
}

// NewSerialTransport returns an unopened transport for the given device
// path.
func NewSerialTransport(path string) *SerialTransport {
	return &SerialTransport{Path: path}
}

func (t *SerialTransport) Open() error {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(t.Path, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.Path, err)
	}
	t.mu.Lock()
	t.port = port
	t.mu.Unlock()
	return nil
}

func (t *SerialTransport) Read(p []byte) (int, error) {
	port := t.current()
	if port == nil {
		return 0, ErrNotOpen
	}
	return port.Read(p)
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	port := t.current()
	if port == nil {
		return 0, ErrNotOpen
	}
	return port.Write(p)
}

// Close releases the port. Closing an unopened transport is a no-op, so
// disconnect stays idempotent.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	port := t.port
	t.port = nil
	t.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}

func (t *SerialTransport) current() serial.Port {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port
}
