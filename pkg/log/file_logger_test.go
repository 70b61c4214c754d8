package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "test.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerAppendsAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.plog")

	first, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	first.Log(Event{Timestamp: time.Now(), SessionID: "a", Category: CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityProvisioning, NewState: "AWAITING_CREDENTIALS"}})
	first.Close()

	second, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	second.Log(Event{Timestamp: time.Now(), SessionID: "b", Category: CategoryDatagram,
		Datagram: &DatagramEvent{Size: 42, CmdType: 1}})
	second.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var ids []string
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		ids = append(ids, ev.SessionID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("sessions: got %v, want [a b]", ids)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				logger.Log(NewErrorEvent("s", LayerListener, "boom", ""))
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		if _, err := reader.Next(); err != nil {
			break
		}
		count++
	}
	if count != 100 {
		t.Errorf("event count: got %d, want 100", count)
	}
	if logger.Dropped() != 0 {
		t.Errorf("dropped: got %d, want 0", logger.Dropped())
	}
}

func TestFileLoggerLogAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.plog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Close()

	// Must not panic.
	logger.Log(Event{Timestamp: time.Now()})
}
