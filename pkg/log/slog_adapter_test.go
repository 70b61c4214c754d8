package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func logJSON(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterDatagramEvent(t *testing.T) {
	entry := logJSON(t, Event{
		Timestamp:  time.Now(),
		SessionID:  "sess-1",
		Direction:  DirectionIn,
		Layer:      LayerListener,
		Category:   CategoryDatagram,
		RemoteAddr: "192.168.4.2:50000",
		Datagram:   &DatagramEvent{Size: 64, CmdType: 2},
	})

	if entry["session_id"] != "sess-1" {
		t.Errorf("session_id: got %v", entry["session_id"])
	}
	if entry["direction"] != "IN" {
		t.Errorf("direction: got %v", entry["direction"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level: got %v", entry["level"])
	}
	if entry["remote"] != "192.168.4.2:50000" {
		t.Errorf("remote: got %v", entry["remote"])
	}
	if entry["cmd_type"] != float64(2) {
		t.Errorf("cmd_type: got %v", entry["cmd_type"])
	}
}

func TestSlogAdapterErrorEventAtWarn(t *testing.T) {
	entry := logJSON(t, NewErrorEvent("sess-2", LayerBinding, "publish timed out", "attempt 3").WithCode(7))

	if entry["level"] != "WARN" {
		t.Errorf("level: got %v, want WARN", entry["level"])
	}
	if entry["error_msg"] != "publish timed out" {
		t.Errorf("error_msg: got %v", entry["error_msg"])
	}
	if entry["error_code"] != float64(7) {
		t.Errorf("error_code: got %v", entry["error_code"])
	}
}

func TestSlogAdapterStateChange(t *testing.T) {
	entry := logJSON(t, Event{
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityProvisioning,
			OldState: "BINDING",
			NewState: "BOUND",
		},
	})

	if entry["new_state"] != "BOUND" {
		t.Errorf("new_state: got %v", entry["new_state"])
	}
	if entry["entity"] != "PROVISIONING" {
		t.Errorf("entity: got %v", entry["entity"])
	}
}
