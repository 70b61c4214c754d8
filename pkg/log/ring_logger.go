package log

import (
	"sync"

	"github.com/mash-protocol/devprov/pkg/wire"
)

// DefaultRingCapacity is the number of error events a RingLogger keeps.
const DefaultRingCapacity = 16

// RingLogger keeps the most recent error events in memory so they can be
// returned to the app in reply to a LOG_QUERY. Non-error events are ignored.
type RingLogger struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewRingLogger creates a RingLogger holding up to capacity error events.
// A capacity below 1 uses DefaultRingCapacity.
func NewRingLogger(capacity int) *RingLogger {
	if capacity < 1 {
		capacity = DefaultRingCapacity
	}
	return &RingLogger{events: make([]Event, capacity)}
}

// Log records the event if it is an error event.
func (r *RingLogger) Log(event Event) {
	if event.Category != CategoryError || event.Error == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Events returns the retained error events, oldest first.
func (r *RingLogger) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.events[:r.next])
		return out
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	out = append(out, r.events[:r.next]...)
	return out
}

// LogEntries returns the retained error events in wire form, oldest first.
func (r *RingLogger) LogEntries() []wire.LogEntry {
	events := r.Events()
	entries := make([]wire.LogEntry, 0, len(events))
	for _, ev := range events {
		entry := wire.LogEntry{
			Timestamp: ev.Timestamp.UnixMilli(),
			Layer:     ev.Error.Layer.String(),
			Message:   ev.Error.Message,
		}
		if ev.Error.Code != nil {
			entry.Code = *ev.Error.Code
		}
		entries = append(entries, entry)
	}
	return entries
}

// Reset discards all retained events.
func (r *RingLogger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.events)
	r.next = 0
	r.full = false
}

// Compile-time interface satisfaction check.
var _ Logger = (*RingLogger)(nil)
