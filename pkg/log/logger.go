package log

// Logger receives the provisioning trace from the listener, the binding
// sequencer and the orchestrator. A nil Logger in any of their configs
// turns capture off.
type Logger interface {
	// Log is called from the listener and session goroutines concurrently
	// and must not block: it runs inline with datagram and MQTT handling.
	Log(event Event)
}

// NoopLogger drops every event.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// OrNoop lets components call Log unconditionally.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

var _ Logger = NoopLogger{}
