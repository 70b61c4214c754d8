package binding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/devprov/pkg/log"
)

// Config configures a Sequencer. Zero values are replaced by defaults.
type Config struct {
	// ConnectRetryDelay is the pause before the single connect retry while
	// the network link is up (default 1s).
	ConnectRetryDelay time.Duration

	// ConnectRetryDelayLinkDown is the pause while the link is down (default 2s).
	ConnectRetryDelayLinkDown time.Duration

	// SubscribeWaitCycles bounds the Yield cycles waiting for the subscribe-ack (default 2).
	SubscribeWaitCycles int

	// PublishAttempts bounds publish submissions per attempt (default 3).
	PublishAttempts int

	// PublishRetryDelay is the Yield between failed submissions while the
	// link and session are up (default 500ms).
	PublishRetryDelay time.Duration

	// PublishRetryDelayLinkDown is the Yield otherwise (default 2s).
	PublishRetryDelayLinkDown time.Duration

	// AckWaitCycles bounds the Yield cycles waiting for the publish-ack (default 5).
	AckWaitCycles int

	// ReplyWaitCycles bounds the Yield cycles waiting for the reply (default 5).
	ReplyWaitCycles int

	// WaitInterval is the duration of one wait cycle (default 1s).
	WaitInterval time.Duration

	// MaxRetries is the number of additional end-to-end attempts (default 2).
	// Set NoRetry to disable retries.
	MaxRetries int
	NoRetry    bool

	// RetryInterval is the Yield between end-to-end attempts (default 1s).
	RetryInterval time.Duration

	// LinkUp reports whether the network layer is up (default: always up).
	LinkUp func() bool

	// Now returns the current time (default time.Now).
	Now func() time.Time

	// Sleep pauses outside a session (default: context-aware timer).
	Sleep func(ctx context.Context, d time.Duration) error

	// SessionID tags protocol events. Generated per Bind when empty.
	SessionID string

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// ProtocolLogger receives protocol events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ConnectRetryDelay:         time.Second,
		ConnectRetryDelayLinkDown: 2 * time.Second,
		SubscribeWaitCycles:       2,
		PublishAttempts:           3,
		PublishRetryDelay:         500 * time.Millisecond,
		PublishRetryDelayLinkDown: 2 * time.Second,
		AckWaitCycles:             5,
		ReplyWaitCycles:           5,
		WaitInterval:              time.Second,
		MaxRetries:                2,
		RetryInterval:             time.Second,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ConnectRetryDelay <= 0 {
		c.ConnectRetryDelay = def.ConnectRetryDelay
	}
	if c.ConnectRetryDelayLinkDown <= 0 {
		c.ConnectRetryDelayLinkDown = def.ConnectRetryDelayLinkDown
	}
	if c.SubscribeWaitCycles <= 0 {
		c.SubscribeWaitCycles = def.SubscribeWaitCycles
	}
	if c.PublishAttempts <= 0 {
		c.PublishAttempts = def.PublishAttempts
	}
	if c.PublishRetryDelay <= 0 {
		c.PublishRetryDelay = def.PublishRetryDelay
	}
	if c.PublishRetryDelayLinkDown <= 0 {
		c.PublishRetryDelayLinkDown = def.PublishRetryDelayLinkDown
	}
	if c.AckWaitCycles <= 0 {
		c.AckWaitCycles = def.AckWaitCycles
	}
	if c.ReplyWaitCycles <= 0 {
		c.ReplyWaitCycles = def.ReplyWaitCycles
	}
	if c.WaitInterval <= 0 {
		c.WaitInterval = def.WaitInterval
	}
	if c.NoRetry {
		c.MaxRetries = 0
	} else if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = def.RetryInterval
	}
	if c.LinkUp == nil {
		c.LinkUp = func() bool { return true }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
}

// Sequencer runs the bind sequence. Only one Bind may be in flight.
type Sequencer struct {
	client Client
	config Config
	logger *slog.Logger
	events log.Logger

	busy atomic.Bool
}

// NewSequencer creates a Sequencer using client to open sessions.
func NewSequencer(client Client, config Config) *Sequencer {
	config.applyDefaults()
	return &Sequencer{
		client: client,
		config: config,
		logger: config.Logger,
		events: log.OrNoop(config.ProtocolLogger),
	}
}

// Bind binds token to the device identified by identity. Attempts that do
// not end Confirmed are retried up to Config.MaxRetries times and the last
// outcome is returned.
func (s *Sequencer) Bind(ctx context.Context, identity DeviceIdentity, token string) Result {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{Outcome: OutcomeConnectFailed, Err: ErrBindInProgress}
	}
	defer s.busy.Store(false)

	sessionID := s.config.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	maxAttempts := 1 + s.config.MaxRetries
	var result Result
	for n := 1; n <= maxAttempts; n++ {
		a := newAttempt(s, sessionID, identity, n)
		result = a.run(ctx, token)
		result.Attempts = n
		s.logState(a, result)

		last := result.Final() || n == maxAttempts || ctx.Err() != nil
		if !last {
			s.debugLog("binding: attempt failed, retrying", "attempt", n, "result", result.String())
			if a.session != nil {
				_ = a.session.Yield(ctx, s.config.RetryInterval)
			} else {
				_ = s.config.Sleep(ctx, s.config.RetryInterval)
			}
		}
		a.disconnect()
		if last {
			break
		}
	}

	s.debugLog("binding: finished", "result", result.String(), "attempts", result.Attempts)
	return result
}

// attempt holds the state of one end-to-end attempt. The callbacks close
// over it; nothing is shared between attempts.
type attempt struct {
	seq       *Sequencer
	sessionID string
	identity  DeviceIdentity
	number    int
	up        string
	down      string
	session   Session

	mu             sync.Mutex
	subscribeAcked bool
	publishAcked   bool
	publishFailed  bool
	replyCode      *int
	replyErr       error
}

func newAttempt(s *Sequencer, sessionID string, identity DeviceIdentity, n int) *attempt {
	return &attempt{
		seq:       s,
		sessionID: sessionID,
		identity:  identity,
		number:    n,
		up:        UpTopic(identity.ProductID, identity.DeviceName),
		down:      DownTopic(identity.ProductID, identity.DeviceName),
	}
}

func (a *attempt) run(ctx context.Context, token string) Result {
	cfg := a.seq.config

	if err := a.connect(ctx); err != nil {
		return Result{Outcome: OutcomeConnectFailed, Err: err}
	}

	subscribed := a.subscribe(ctx)
	if ctx.Err() != nil {
		return Result{Outcome: OutcomeSubscribeFailed, SubscribeFailed: true, Err: ctx.Err()}
	}
	if !subscribed && !a.session.IsConnected() {
		return Result{Outcome: OutcomeSubscribeFailed, SubscribeFailed: true, Err: ErrSessionLost}
	}

	payload, err := BindRequestPayload(a.identity.DeviceName, token, cfg.Now())
	if err != nil {
		return Result{Outcome: OutcomePublishTimedOut, SubscribeFailed: !subscribed, Err: err}
	}
	if err := a.publish(ctx, payload); err != nil {
		return Result{Outcome: OutcomePublishTimedOut, SubscribeFailed: !subscribed, Err: err}
	}

	if !a.waitFor(ctx, cfg.AckWaitCycles, func() bool { return a.publishAcked || a.publishFailed }) || !a.isPublishAcked() {
		err := ctx.Err()
		if err == nil && a.isPublishFailed() {
			err = ErrPublishNacked
		}
		return Result{Outcome: OutcomePublishTimedOut, SubscribeFailed: !subscribed, Err: err}
	}

	if !a.waitFor(ctx, cfg.ReplyWaitCycles, func() bool { return a.replyCode != nil }) {
		return Result{Outcome: OutcomeReplyTimedOut, SubscribeFailed: !subscribed, Err: ctx.Err()}
	}

	a.mu.Lock()
	code, replyErr := *a.replyCode, a.replyErr
	a.mu.Unlock()
	if code == 0 {
		return Result{Outcome: OutcomeConfirmed, SubscribeFailed: !subscribed}
	}
	return Result{Outcome: OutcomeRejected, Code: code, SubscribeFailed: !subscribed, Err: replyErr}
}

// connect opens the session, retrying exactly once.
func (a *attempt) connect(ctx context.Context) error {
	cfg := a.seq.config

	var err error
	for try := 1; try <= 2; try++ {
		a.logMessage(log.DirectionOut, &log.MessageEvent{Kind: log.MessageKindConnect, Attempt: a.number})
		a.session, err = a.seq.client.Connect(ctx, a.identity, a.onEvent)
		if err == nil {
			return nil
		}
		a.session = nil
		a.logError(err.Error(), "connect")
		if try == 2 || ctx.Err() != nil {
			break
		}

		delay := cfg.ConnectRetryDelayLinkDown
		if cfg.LinkUp() {
			delay = cfg.ConnectRetryDelay
		}
		a.seq.debugLog("binding: connect failed, retrying", "delay", delay, "error", err)
		if serr := cfg.Sleep(ctx, delay); serr != nil {
			return fmt.Errorf("binding: connect: %w", serr)
		}
	}
	return fmt.Errorf("binding: connect: %w", err)
}

// subscribe requests the down topic and waits for the ack. Only the ack
// ends the wait early: a nack, a timeout event or a failed submission still
// spend the whole wait budget before the publish.
func (a *attempt) subscribe(ctx context.Context) bool {
	a.logMessage(log.DirectionOut, &log.MessageEvent{Kind: log.MessageKindSubscribe, Topic: a.down, QoS: uint8(QoS0), Attempt: a.number})
	if err := a.session.Subscribe(a.down, QoS0, a.onMessage); err != nil {
		a.logError(err.Error(), "subscribe")
	}

	acked := a.waitFor(ctx, a.seq.config.SubscribeWaitCycles, func() bool {
		return a.subscribeAcked
	})
	if !acked {
		a.logError(ErrSubscribeFailed.Error(), a.down)
		a.seq.debugLog("binding: subscribe not acknowledged, continuing", "topic", a.down)
	}
	return acked
}

// publish submits the bind request, retrying failed submissions.
func (a *attempt) publish(ctx context.Context, payload []byte) error {
	cfg := a.seq.config

	var err error
	for try := 1; try <= cfg.PublishAttempts; try++ {
		a.logMessage(log.DirectionOut, &log.MessageEvent{Kind: log.MessageKindPublish, Topic: a.up, QoS: uint8(QoS1), Payload: payload, Attempt: a.number})
		if err = a.session.Publish(a.up, QoS1, payload); err == nil {
			return nil
		}
		a.logError(err.Error(), "publish")
		if try == cfg.PublishAttempts {
			break
		}

		delay := cfg.PublishRetryDelayLinkDown
		if cfg.LinkUp() && a.session.IsConnected() {
			delay = cfg.PublishRetryDelay
		}
		if yerr := a.session.Yield(ctx, delay); yerr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("binding: publish: %w", err)
}

// waitFor yields up to cycles times until done reports true. It returns
// false when the cycles run out or ctx is done.
func (a *attempt) waitFor(ctx context.Context, cycles int, done func() bool) bool {
	check := func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return done()
	}

	for i := 0; i < cycles; i++ {
		if check() {
			return true
		}
		if err := a.session.Yield(ctx, a.seq.config.WaitInterval); err != nil {
			if ctx.Err() != nil {
				return false
			}
			a.seq.debugLog("binding: yield failed", "error", err)
		}
	}
	return check()
}

func (a *attempt) onEvent(ev Event) {
	a.mu.Lock()
	switch ev.Type {
	case EventSubscribeSuccess:
		a.subscribeAcked = true
	case EventPublishSuccess:
		a.publishAcked = true
	case EventPublishTimeout, EventPublishNack:
		a.publishFailed = true
	}
	a.mu.Unlock()

	a.logMessage(log.DirectionIn, &log.MessageEvent{Kind: log.MessageKindEvent, Topic: ev.Topic, Event: ev.Type.String(), Attempt: a.number})
	switch ev.Type {
	case EventSubscribeTimeout, EventSubscribeNack, EventPublishTimeout, EventPublishNack, EventDisconnect:
		a.logError(ev.Type.String(), ev.Topic)
	}
}

func (a *attempt) onMessage(msg Message) {
	a.logMessage(log.DirectionIn, &log.MessageEvent{Kind: log.MessageKindReceive, Topic: msg.Topic, Payload: capture(msg.Payload), Attempt: a.number})

	code, err := ParseReplyCode(msg.Payload)

	a.mu.Lock()
	if a.replyCode != nil {
		a.mu.Unlock()
		return
	}
	a.replyCode = &code
	a.replyErr = err
	a.mu.Unlock()

	if err != nil {
		a.logErrorCode(err.Error(), msg.Topic, code)
	} else if code != 0 {
		a.logErrorCode("bind rejected", msg.Topic, code)
	}
}

func (a *attempt) isPublishAcked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.publishAcked
}

func (a *attempt) isPublishFailed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.publishFailed
}

func (a *attempt) disconnect() {
	if a.session == nil {
		return
	}
	if err := a.session.Disconnect(); err != nil {
		a.seq.debugLog("binding: disconnect failed", "error", err)
	}
	a.session = nil
}

func (a *attempt) logMessage(dir log.Direction, msg *log.MessageEvent) {
	a.seq.events.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  a.sessionID,
		Direction:  dir,
		Layer:      log.LayerBinding,
		Category:   log.CategoryMessage,
		ProductID:  a.identity.ProductID,
		DeviceName: a.identity.DeviceName,
		Message:    msg,
	})
}

func (a *attempt) logError(msg, where string) {
	ev := log.NewErrorEvent(a.sessionID, log.LayerBinding, msg, where)
	ev.ProductID = a.identity.ProductID
	ev.DeviceName = a.identity.DeviceName
	a.seq.events.Log(ev)
}

func (a *attempt) logErrorCode(msg, where string, code int) {
	ev := log.NewErrorEvent(a.sessionID, log.LayerBinding, msg, where).WithCode(code)
	ev.ProductID = a.identity.ProductID
	ev.DeviceName = a.identity.DeviceName
	a.seq.events.Log(ev)
}

func (s *Sequencer) logState(a *attempt, r Result) {
	s.events.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  a.sessionID,
		Direction:  log.DirectionNone,
		Layer:      log.LayerBinding,
		Category:   log.CategoryState,
		ProductID:  a.identity.ProductID,
		DeviceName: a.identity.DeviceName,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityBinding,
			NewState: r.Outcome.String(),
			Reason:   fmt.Sprintf("attempt %d", a.number),
		},
	})
}

func (s *Sequencer) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func capture(payload []byte) []byte {
	if len(payload) > log.MaxDataCapture {
		return payload[:log.MaxDataCapture]
	}
	return payload
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
