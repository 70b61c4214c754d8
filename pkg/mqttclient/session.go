package mqttclient

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mash-protocol/devprov/pkg/binding"
)

// disconnectQuiesce is how long Disconnect lets in-flight work finish, in ms.
const disconnectQuiesce = 250

// session is an MQTT binding.Session.
type session struct {
	client     mqtt.Client
	onEvent    binding.EventHandler
	ackTimeout time.Duration
	logger     *slog.Logger

	queue         chan func()
	done          chan struct{}
	closeOnce     sync.Once
	connectedOnce atomic.Bool
}

func newSession(onEvent binding.EventHandler, ackTimeout time.Duration, logger *slog.Logger) *session {
	if onEvent == nil {
		onEvent = func(binding.Event) {}
	}
	s := &session{
		onEvent:    onEvent,
		ackTimeout: ackTimeout,
		logger:     logger,
		queue:      make(chan func(), DefaultQueueSize),
		done:       make(chan struct{}),
	}
	return s
}

// Subscribe requests topic; the SUBACK outcome is raised as an event.
func (s *session) Subscribe(topic string, qos binding.QoS, onMessage binding.MessageHandler) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	token := s.client.Subscribe(topic, byte(qos), func(_ mqtt.Client, msg mqtt.Message) {
		m := binding.Message{Topic: msg.Topic(), Payload: append([]byte(nil), msg.Payload()...)}
		s.enqueue(func() {
			if onMessage != nil {
				onMessage(m)
			}
		})
	})

	go s.awaitToken(token, topic, binding.EventSubscribeSuccess, binding.EventSubscribeTimeout, binding.EventSubscribeNack)
	return nil
}

// Publish submits payload; for QoS1 the PUBACK outcome is raised as an event.
func (s *session) Publish(topic string, qos binding.QoS, payload []byte) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	token := s.client.Publish(topic, byte(qos), false, payload)
	go s.awaitToken(token, topic, binding.EventPublishSuccess, binding.EventPublishTimeout, binding.EventPublishNack)
	return nil
}

// Yield runs queued callbacks for up to d.
func (s *session) Yield(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.queue:
			fn()
		case <-timer.C:
			return nil
		}
	}
}

// IsConnected reports whether the connection is open.
func (s *session) IsConnected() bool {
	select {
	case <-s.done:
		return false
	default:
	}
	return s.client != nil && s.client.IsConnectionOpen()
}

// Disconnect closes the connection. Pending callbacks are discarded.
func (s *session) Disconnect() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.client != nil {
			s.client.Disconnect(disconnectQuiesce)
		}
	})
	return nil
}

// awaitToken waits for an ack and raises the matching event.
func (s *session) awaitToken(token mqtt.Token, topic string, success, timeout, nack binding.EventType) {
	ev := binding.Event{Type: success, Topic: topic}
	switch {
	case !token.WaitTimeout(s.ackTimeout):
		ev.Type = timeout
	case token.Error() != nil:
		s.debugLog("mqttclient: request failed", "topic", topic, "error", token.Error())
		ev.Type = nack
	case subscribeRejected(token):
		ev.Type = nack
	}
	s.enqueueEvent(ev)
}

func (s *session) enqueueEvent(ev binding.Event) {
	s.enqueue(func() { s.onEvent(ev) })
}

// enqueue hands fn to the next Yield, or drops it once the session is closed.
func (s *session) enqueue(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

func (s *session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// subscribeRejected reports a SUBACK failure return code (0x80).
func subscribeRejected(token mqtt.Token) bool {
	st, ok := token.(*mqtt.SubscribeToken)
	if !ok {
		return false
	}
	for _, code := range st.Result() {
		if code == 0x80 {
			return true
		}
	}
	return false
}

// Compile-time interface satisfaction check.
var _ binding.Session = (*session)(nil)
