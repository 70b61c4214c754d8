package log

// MultiLogger fans one event stream out to several sinks. prov-device uses it
// to feed the RingLogger behind LOG_QUERY replies and the .plog file at once.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger drops nil entries, so optional sinks can be passed as-is.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log forwards event to each sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
