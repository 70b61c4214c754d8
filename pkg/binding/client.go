package binding

import (
	"context"
	"fmt"
	"time"

	"github.com/mash-protocol/devprov/pkg/credstore"
)

// DeviceIdentity is the cloud identity used to open a session.
type DeviceIdentity = credstore.Identity

// QoS is a message delivery guarantee level.
type QoS uint8

const (
	QoS0 QoS = 0 // at most once
	QoS1 QoS = 1 // at least once
)

// EventType classifies a session event.
type EventType uint8

const (
	EventSubscribeSuccess EventType = iota
	EventSubscribeTimeout
	EventSubscribeNack
	EventPublishSuccess
	EventPublishTimeout
	EventPublishNack
	EventDisconnect
	EventReconnect
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventSubscribeSuccess:
		return "SUBSCRIBE_SUCCESS"
	case EventSubscribeTimeout:
		return "SUBSCRIBE_TIMEOUT"
	case EventSubscribeNack:
		return "SUBSCRIBE_NACK"
	case EventPublishSuccess:
		return "PUBLISH_SUCCESS"
	case EventPublishTimeout:
		return "PUBLISH_TIMEOUT"
	case EventPublishNack:
		return "PUBLISH_NACK"
	case EventDisconnect:
		return "DISCONNECT"
	case EventReconnect:
		return "RECONNECT"
	default:
		return fmt.Sprintf("EVENT(%d)", t)
	}
}

// Event is a session event.
type Event struct {
	Type EventType

	// Topic the event refers to, when known.
	Topic string
}

// Message is an inbound message.
type Message struct {
	Topic   string
	Payload []byte
}

// EventHandler receives session events.
type EventHandler func(Event)

// MessageHandler receives messages on a subscribed topic.
type MessageHandler func(Message)

// Client opens messaging sessions.
type Client interface {
	// Connect opens a session authenticated with identity. onEvent is
	// invoked for session events, only from inside Session.Yield.
	Connect(ctx context.Context, identity DeviceIdentity, onEvent EventHandler) (Session, error)
}

// Session is an open messaging session. It is used from a single goroutine;
// callbacks run synchronously inside Yield.
type Session interface {
	// Subscribe requests a subscription. The outcome arrives as an event.
	Subscribe(topic string, qos QoS, onMessage MessageHandler) error

	// Publish submits a message. For QoS1 the ack arrives as an event.
	Publish(topic string, qos QoS, payload []byte) error

	// Yield processes network traffic and dispatches callbacks for up to d.
	Yield(ctx context.Context, d time.Duration) error

	// IsConnected reports whether the session is up.
	IsConnected() bool

	// Disconnect closes the session.
	Disconnect() error
}
