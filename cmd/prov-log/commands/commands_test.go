package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/devprov/pkg/log"
)

const sessionA = "3f2a9c1e-0000-4000-8000-000000000001"
const sessionB = "7b1d0e55-0000-4000-8000-000000000002"

func sampleEvents() []log.Event {
	base := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp:  base,
			SessionID:  sessionA,
			Direction:  log.DirectionIn,
			Layer:      log.LayerListener,
			Category:   log.CategoryDatagram,
			RemoteAddr: "192.168.4.2:50000",
			Datagram:   log.NewDatagramEvent([]byte(`{"cmdType":1,"token":"abc"}`), 1, true),
		},
		{
			Timestamp:  base.Add(time.Second),
			SessionID:  sessionA,
			Direction:  log.DirectionOut,
			Layer:      log.LayerBinding,
			Category:   log.CategoryMessage,
			DeviceName: "lamp01",
			Message: &log.MessageEvent{
				Kind:    log.MessageKindPublish,
				Topic:   "$thing/up/service/PID/lamp01",
				QoS:     1,
				Attempt: 1,
			},
		},
		{
			Timestamp: base.Add(2 * time.Second),
			SessionID: sessionA,
			Direction: log.DirectionNone,
			Layer:     log.LayerOrchestrator,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityProvisioning,
				OldState: "BINDING_IN_PROGRESS",
				NewState: "BOUND",
			},
		},
		log.NewErrorEvent(sessionB, log.LayerListener, "decode failed", "cmdType 9").WithCode(9),
	}
}

func writeLog(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.plog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestFormatDatagramEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0])
	output := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:00.000000Z",
		"[session:3f2a9c1e]",
		"IN",
		"LISTENER Datagram",
		"Peer: 192.168.4.2:50000",
		"cmdType: 1",
		`{"cmdType":1,"token":"abc"}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatMessageAndStateEvents(t *testing.T) {
	events := sampleEvents()

	var buf bytes.Buffer
	formatEvent(&buf, events[1])
	if out := buf.String(); !strings.Contains(out, "BINDING PUBLISH") || !strings.Contains(out, "Topic: $thing/up/service/PID/lamp01 (qos 1)") {
		t.Errorf("unexpected message output:\n%s", out)
	}

	buf.Reset()
	formatEvent(&buf, events[2])
	if out := buf.String(); !strings.Contains(out, "BINDING_IN_PROGRESS -> BOUND") {
		t.Errorf("unexpected state output:\n%s", out)
	}

	buf.Reset()
	formatEvent(&buf, events[3])
	out := buf.String()
	if !strings.Contains(out, "Message: decode failed") || !strings.Contains(out, "Code: 9") {
		t.Errorf("unexpected error output:\n%s", out)
	}
}

func TestRunViewFilter(t *testing.T) {
	path := writeLog(t, sampleEvents())

	layer := log.LayerBinding
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "[session:") != 1 {
		t.Errorf("expected 1 event, got:\n%s", out)
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{SessionID: sessionB}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}
	if !strings.Contains(buf.String(), "[session:7b1d0e55]") || strings.Contains(buf.String(), "3f2a9c1e") {
		t.Errorf("session filter failed:\n%s", buf.String())
	}
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "nope.plog"), ViewFilter{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunFilter(t *testing.T) {
	path := writeLog(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	n, err := RunFilter(path, FilterOptions{Output: out, SessionID: sessionA, Category: "state"})
	if err != nil {
		t.Fatalf("RunFilter: %v", err)
	}
	if n != 1 {
		t.Errorf("RunFilter wrote %d events, want 1", n)
	}

	stats, err := CollectStats(out)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}
	if stats.TotalEvents != 1 || stats.EventsByCategory[log.CategoryState] != 1 {
		t.Errorf("unexpected filtered contents: %+v", stats)
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := writeLog(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	tests := []FilterOptions{
		{Output: out, Layer: "transport"},
		{Output: out, Direction: "sideways"},
		{Output: out, Category: "snapshot"},
		{Output: out, TimeStart: "yesterday"},
	}
	for _, opts := range tests {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("RunFilter(%+v) expected error", opts)
		}
	}
}

func TestCollectStats(t *testing.T) {
	path := writeLog(t, sampleEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}

	if stats.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", stats.TotalEvents)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if len(stats.Sessions) != 2 {
		t.Fatalf("Sessions = %d, want 2", len(stats.Sessions))
	}
	a := stats.Sessions[sessionA]
	if a.Events != 3 || a.DeviceName != "lamp01" || a.FinalState != "BOUND" {
		t.Errorf("session A stats = %+v", a)
	}
	if stats.Sessions[sessionB].Errors != 1 {
		t.Errorf("session B errors = %d, want 1", stats.Sessions[sessionB].Errors)
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	for _, want := range []string{"Total Events: 4", "Sessions: 2", "Final state: BOUND", "LISTENER:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in stats output:\n%s", want, buf.String())
		}
	}
}

func TestRunExport(t *testing.T) {
	path := writeLog(t, sampleEvents())
	dir := t.TempDir()

	jsonl := filepath.Join(dir, "out.jsonl")
	if err := RunExport(path, "jsonl", jsonl); err != nil {
		t.Fatalf("RunExport jsonl: %v", err)
	}
	data, err := os.ReadFile(jsonl)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("jsonl lines = %d, want 4", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Errorf("line 1 is not JSON: %v", err)
	}

	csvPath := filepath.Join(dir, "out.csv")
	if err := RunExport(path, "csv", csvPath); err != nil {
		t.Fatalf("RunExport csv: %v", err)
	}
	data, err = os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "timestamp,session_id,") {
		t.Errorf("missing csv header:\n%s", out)
	}
	if !strings.Contains(out, "BINDING_IN_PROGRESS->BOUND") {
		t.Errorf("missing state detail:\n%s", out)
	}

	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Binding"); err != nil || l != log.LayerBinding {
		t.Errorf("ParseLayerFlag(Binding) = %v, %v", l, err)
	}
	if d, err := ParseDirectionFlag("none"); err != nil || d != log.DirectionNone {
		t.Errorf("ParseDirectionFlag(none) = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("DATAGRAM"); err != nil || c != log.CategoryDatagram {
		t.Errorf("ParseCategoryFlag(DATAGRAM) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("control"); err == nil {
		t.Error("expected error for unknown category")
	}
}
