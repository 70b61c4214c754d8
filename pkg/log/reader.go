package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events from a .plog file. Every set field must match;
// unset fields match anything.
type Filter struct {
	// SessionID is the provisioning attempt to keep.
	SessionID string

	// Direction keeps only inbound or outbound traffic.
	Direction *Direction

	// Layer keeps listener, binding or orchestrator events.
	Layer *Layer

	// Category keeps one kind of event, e.g. errors.
	Category *Category

	// TimeStart and TimeEnd bound the half-open window [TimeStart, TimeEnd).
	TimeStart *time.Time
	TimeEnd   *time.Time

	// DeviceName keeps events from one device.
	DeviceName string
}

func (f *Filter) matches(event Event) bool {
	if f.SessionID != "" && event.SessionID != f.SessionID {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.DeviceName != "" && event.DeviceName != f.DeviceName {
		return false
	}
	return true
}

// Reader streams events out of a .plog file one at a time, so prov-log can
// walk traces longer than memory.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens path for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and skips events that filter rejects.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
// A record cut short by a crash mid-write surfaces as a decode error.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}

		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close releases the file.
func (r *Reader) Close() error {
	return r.file.Close()
}
