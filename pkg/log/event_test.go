package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	code := 403
	event := Event{
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		SessionID:  "9b2f0c4e-5d1a-4f7e-b1a0-0d3c2e6f7a81",
		Direction:  DirectionOut,
		Layer:      LayerBinding,
		Category:   CategoryMessage,
		ProductID:  "PID1",
		DeviceName: "lamp01",
		Message: &MessageEvent{
			Kind:    MessageKindPublish,
			Topic:   "$thing/up/service/PID1/lamp01",
			QoS:     1,
			Attempt: 2,
		},
		Error: &ErrorEventData{Layer: LayerBinding, Message: "rejected", Code: &code},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, event.Timestamp)
	}
	if decoded.SessionID != event.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, event.SessionID)
	}
	if decoded.Message == nil || decoded.Message.Topic != event.Message.Topic {
		t.Errorf("Message: got %+v", decoded.Message)
	}
	if decoded.Error == nil || decoded.Error.Code == nil || *decoded.Error.Code != 403 {
		t.Errorf("Error: got %+v", decoded.Error)
	}
}

func TestNewDatagramEventTruncates(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, MaxDataCapture+10)

	ev := NewDatagramEvent(data, 2, true)
	if ev.Size != len(data) {
		t.Errorf("Size: got %d, want %d", ev.Size, len(data))
	}
	if len(ev.Data) != MaxDataCapture {
		t.Errorf("Data length: got %d, want %d", len(ev.Data), MaxDataCapture)
	}
	if !ev.Truncated {
		t.Error("expected Truncated")
	}
}

func TestNewDatagramEventWithoutCapture(t *testing.T) {
	ev := NewDatagramEvent([]byte(`{"cmdType":2,"password":"secret"}`), 2, false)
	if ev.Data != nil {
		t.Errorf("expected no data, got %q", ev.Data)
	}
	if ev.Size == 0 {
		t.Error("expected size to be recorded")
	}
}

func TestWithCode(t *testing.T) {
	ev := NewErrorEvent("s1", LayerListener, "persist failed", "token")
	coded := ev.WithCode(-1)

	if ev.Error.Code != nil {
		t.Error("original event was modified")
	}
	if coded.Error.Code == nil || *coded.Error.Code != -1 {
		t.Errorf("Code: got %v", coded.Error.Code)
	}

	plain := Event{Category: CategoryState}
	if got := plain.WithCode(1); got.Error != nil {
		t.Error("WithCode should not add error data to non-error events")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionNone.String(), "-"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerOrchestrator.String(), "ORCHESTRATOR"},
		{CategoryDatagram.String(), "DATAGRAM"},
		{MessageKindSubscribe.String(), "SUBSCRIBE"},
		{StateEntityProvisioning.String(), "PROVISIONING"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
