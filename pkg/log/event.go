package log

import (
	"time"
)

// Event represents a provisioning event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the provisioning attempt (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port) on the control channel.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// ProductID is the cloud product identifier.
	ProductID string `cbor:"7,keyasint,omitempty"`

	// DeviceName is the cloud device name.
	DeviceName string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Datagram    *DatagramEvent    `cbor:"10,keyasint,omitempty"` // Listener layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Binding layer
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Any state machine
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
	// DirectionNone is used for local events (state changes, errors).
	DirectionNone Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "-"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerListener is the local UDP control channel.
	LayerListener Layer = 0
	// LayerBinding is the cloud binding session.
	LayerBinding Layer = 1
	// LayerOrchestrator is the provisioning state machine.
	LayerOrchestrator Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerListener:
		return "LISTENER"
	case LayerBinding:
		return "BINDING"
	case LayerOrchestrator:
		return "ORCHESTRATOR"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryDatagram indicates a control-channel datagram.
	CategoryDatagram Category = 0
	// CategoryMessage indicates messaging session traffic.
	CategoryMessage Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryDatagram:
		return "DATAGRAM"
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxDataCapture bounds the bytes of a datagram or payload kept in an event.
const MaxDataCapture = 256

// DatagramEvent captures a control-channel datagram.
type DatagramEvent struct {
	// Size is the datagram size in bytes.
	Size int `cbor:"1,keyasint"`

	// CmdType is the decoded command type (0 if decoding failed).
	CmdType int `cbor:"2,keyasint,omitempty"`

	// Data is the raw datagram (may be truncated, omitted for credentials).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// NewDatagramEvent builds a DatagramEvent, capturing at most MaxDataCapture bytes.
// Pass capture=false to record only the size (e.g. for datagrams carrying secrets).
func NewDatagramEvent(data []byte, cmdType int, capture bool) *DatagramEvent {
	ev := &DatagramEvent{Size: len(data), CmdType: cmdType}
	if !capture {
		return ev
	}
	if len(data) > MaxDataCapture {
		ev.Data = append([]byte(nil), data[:MaxDataCapture]...)
		ev.Truncated = true
	} else {
		ev.Data = append([]byte(nil), data...)
	}
	return ev
}

// MessageKind distinguishes messaging session activity.
type MessageKind uint8

const (
	// MessageKindConnect is a session connect attempt.
	MessageKindConnect MessageKind = 0
	// MessageKindSubscribe is a subscribe request.
	MessageKindSubscribe MessageKind = 1
	// MessageKindPublish is a publish request.
	MessageKindPublish MessageKind = 2
	// MessageKindReceive is an inbound message.
	MessageKindReceive MessageKind = 3
	// MessageKindEvent is a session event (ack, nack, timeout, disconnect).
	MessageKindEvent MessageKind = 4
)

// String returns the message kind name.
func (k MessageKind) String() string {
	switch k {
	case MessageKindConnect:
		return "CONNECT"
	case MessageKindSubscribe:
		return "SUBSCRIBE"
	case MessageKindPublish:
		return "PUBLISH"
	case MessageKindReceive:
		return "RECEIVE"
	case MessageKindEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures messaging session activity at the binding layer.
type MessageEvent struct {
	// Kind of activity.
	Kind MessageKind `cbor:"1,keyasint"`

	// Topic involved, if any.
	Topic string `cbor:"2,keyasint,omitempty"`

	// QoS level used.
	QoS uint8 `cbor:"3,keyasint,omitempty"`

	// Event names the session event for MessageKindEvent.
	Event string `cbor:"4,keyasint,omitempty"`

	// Payload is the message body (may be truncated).
	Payload []byte `cbor:"5,keyasint,omitempty"`

	// Attempt is the 1-based binding attempt number.
	Attempt int `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures state machine transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityListener indicates a control listener session change.
	StateEntityListener StateEntity = 0
	// StateEntityBinding indicates a binding attempt change.
	StateEntityBinding StateEntity = 1
	// StateEntityProvisioning indicates an orchestrator state change.
	StateEntityProvisioning StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityListener:
		return "LISTENER"
	case StateEntityBinding:
		return "BINDING"
	case StateEntityProvisioning:
		return "PROVISIONING"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is a protocol or cloud error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context provides additional information about the error.
	Context string `cbor:"4,keyasint,omitempty"`
}

// NewErrorEvent builds an error event for the given layer.
func NewErrorEvent(sessionID string, layer Layer, msg, context string) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: DirectionNone,
		Layer:     layer,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   layer,
			Message: msg,
			Context: context,
		},
	}
}

// WithCode returns a copy of an error event carrying a code.
func (e Event) WithCode(code int) Event {
	if e.Error == nil {
		return e
	}
	errData := *e.Error
	errData.Code = &code
	e.Error = &errData
	return e
}
