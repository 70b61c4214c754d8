// Package log provides structured provisioning event capture.
//
// This package defines the Logger interface and Event types for recording
// what happened during a provisioning attempt: datagrams on the local
// control channel, messages on the cloud binding session, state
// transitions of the orchestrator, and errors. It is separate from
// operational logging (slog) - event capture is a machine-readable trace
// that survives the attempt and can be pushed back to the companion app.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg := provisioning.DefaultConfig()
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	fileLogger, err := log.NewFileLogger("/var/lib/devprov/prov.plog")
//	if err != nil {
//		return err
//	}
//	defer fileLogger.Close()
//
//	// Keep recent errors for LOG_QUERY replies, and write a file
//	ring := log.NewRingLogger(32)
//	cfg.ProtocolLogger = log.NewMultiLogger(ring, fileLogger)
//
// The same logger is passed as ProtocolLogger to listener.Config and
// binding.Config so all three layers share one trace.
//
// # Event Types
//
// Events are captured at three layers:
//   - Listener: control datagrams (DatagramEvent)
//   - Binding: messaging session traffic and events (MessageEvent)
//   - Orchestrator: provisioning state changes (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Log files use CBOR encoding with the .plog extension. The prov-log CLI
// tool provides viewing, filtering and statistics.
package log
