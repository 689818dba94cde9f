package link

import (
	"fmt"
	"sync"
	"time"
)

// Level classifies an activity entry.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one recorded protocol event or error.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// Activity is an append-only log of the most recent entries, kept bounded
// for diagnosis without unbounded growth.
type Activity struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

// NewActivity returns a log retaining the last max entries.
func NewActivity(max int) *Activity {
	return &Activity{max: max}
}

// Add appends a formatted entry, evicting the oldest past the bound.
func (a *Activity) Add(level Level, format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, Entry{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
	if len(a.entries) > a.max {
		a.entries = a.entries[len(a.entries)-a.max:]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (a *Activity) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}
