package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingLoggerIgnoresNonErrors(t *testing.T) {
	ring := NewRingLogger(4)
	ring.Log(Event{Category: CategoryState, StateChange: &StateChangeEvent{NewState: "BOUND"}})
	ring.Log(Event{Category: CategoryDatagram, Datagram: &DatagramEvent{Size: 1}})

	assert.Empty(t, ring.Events())
	assert.Empty(t, ring.LogEntries())
}

func TestRingLoggerKeepsMostRecent(t *testing.T) {
	ring := NewRingLogger(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		ring.Log(NewErrorEvent("s", LayerListener, msg, ""))
	}

	events := ring.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].Error.Message)
	assert.Equal(t, "d", events[1].Error.Message)
	assert.Equal(t, "e", events[2].Error.Message)
}

func TestRingLoggerLogEntries(t *testing.T) {
	ring := NewRingLogger(0)
	ts := time.UnixMilli(1700000000123)

	ev := NewErrorEvent("s", LayerBinding, "bind rejected", "")
	ev.Timestamp = ts
	ring.Log(ev.WithCode(1001))

	entries := ring.LogEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1700000000123), entries[0].Timestamp)
	assert.Equal(t, "BINDING", entries[0].Layer)
	assert.Equal(t, 1001, entries[0].Code)
	assert.Equal(t, "bind rejected", entries[0].Message)
}

func TestRingLoggerReset(t *testing.T) {
	ring := NewRingLogger(2)
	ring.Log(NewErrorEvent("s", LayerListener, "a", ""))
	ring.Log(NewErrorEvent("s", LayerListener, "b", ""))
	ring.Log(NewErrorEvent("s", LayerListener, "c", ""))

	ring.Reset()
	assert.Empty(t, ring.Events())

	ring.Log(NewErrorEvent("s", LayerListener, "d", ""))
	require.Len(t, ring.Events(), 1)
	assert.Equal(t, "d", ring.Events()[0].Error.Message)
}
