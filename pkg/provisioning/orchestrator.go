package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/devprov/pkg/binding"
	"github.com/mash-protocol/devprov/pkg/credstore"
	"github.com/mash-protocol/devprov/pkg/discovery"
	"github.com/mash-protocol/devprov/pkg/listener"
	"github.com/mash-protocol/devprov/pkg/log"
	"github.com/mash-protocol/devprov/pkg/version"
)

// Orchestrator errors.
var (
	ErrMissingDependency = errors.New("provisioning: missing dependency")
	ErrAlreadyRunning    = errors.New("provisioning: run already in progress")
	ErrListenerFailed    = errors.New("provisioning: control listener failed")
	ErrNoAddress         = errors.New("provisioning: no address on station network")
	ErrBindingFailed     = errors.New("provisioning: cloud binding failed")
)

// Config configures the Orchestrator.
type Config struct {
	// Method selects how credentials are acquired (default SoftAPUDP).
	Method Method

	// SessionTimeout bounds the wait for credentials (default 5m).
	SessionTimeout time.Duration

	// AddressPollAttempts and AddressPollInterval bound the wait for a
	// station address after joining the network (default 20 x 1s).
	AddressPollAttempts int
	AddressPollInterval time.Duration

	// ListenerPort is the advertised control port (default listener.DefaultPort).
	ListenerPort uint16

	// ProductID and DeviceName are advertised over mDNS. When empty they
	// are taken from the stored identity.
	ProductID  string
	DeviceName string

	// Sleep pauses between address polls (default: context-aware timer).
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// ProtocolLogger receives state change events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Method:              SoftAPUDP{SSID: DefaultSoftAPSSID},
		SessionTimeout:      listener.DefaultSessionTimeout,
		AddressPollAttempts: 20,
		AddressPollInterval: time.Second,
		ListenerPort:        listener.DefaultPort,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Method == nil {
		c.Method = def.Method
	}
	if m, ok := c.Method.(SoftAPUDP); ok && m.SSID == "" {
		m.SSID = DefaultSoftAPSSID
		c.Method = m
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = def.SessionTimeout
	}
	if c.AddressPollAttempts <= 0 {
		c.AddressPollAttempts = def.AddressPollAttempts
	}
	if c.AddressPollInterval <= 0 {
		c.AddressPollInterval = def.AddressPollInterval
	}
	if c.ListenerPort == 0 {
		c.ListenerPort = def.ListenerPort
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
}

// Report summarizes one Run.
type Report struct {
	SessionID string
	State     State

	// Record is the network record the device joined with.
	Record credstore.Record

	// Listener is the last control listener result, if one ran.
	Listener *listener.Result

	// Binding is the binding result, if binding ran.
	Binding *binding.Result

	// AlreadyBound is set when the stored token was empty and binding was skipped.
	AlreadyBound bool
}

// Orchestrator drives the provisioning state machine.
type Orchestrator struct {
	config Config
	deps   Deps
	logger *slog.Logger
	events log.Logger

	mu       sync.RWMutex
	state    State
	running  bool
	session  string
	handlers []StateChangeHandler
}

// New creates an Orchestrator. Store, Radio, NewListener and Binder are required.
func New(config Config, deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Radio == nil:
		return nil, fmt.Errorf("%w: radio", ErrMissingDependency)
	case deps.NewListener == nil:
		return nil, fmt.Errorf("%w: listener factory", ErrMissingDependency)
	case deps.Binder == nil:
		return nil, fmt.Errorf("%w: binder", ErrMissingDependency)
	}

	config.applyDefaults()
	return &Orchestrator{
		config: config,
		deps:   deps,
		logger: config.Logger,
		events: log.OrNoop(config.ProtocolLogger),
		state:  StateUnprovisioned,
	}, nil
}

// State returns the current provisioning state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// OnStateChange registers a handler for state transitions.
func (o *Orchestrator) OnStateChange(handler StateChangeHandler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers = append(o.handlers, handler)
}

// Check inspects the store and returns the state a Run would continue
// from: ApplyingCredentials with the stored record when a network is
// stored, AwaitingCredentials otherwise. Check has no side effects.
func (o *Orchestrator) Check(_ context.Context) (State, credstore.Record, error) {
	rec, err := credstore.LoadRecord(o.deps.Store)
	if err != nil {
		return StateUnprovisioned, credstore.Record{}, fmt.Errorf("load record: %w", err)
	}
	if rec.HasNetwork() {
		return StateApplyingCredentials, rec, nil
	}
	return StateAwaitingCredentials, credstore.Record{}, nil
}

// Run performs one provisioning attempt and returns when the device is
// Bound or the attempt Failed. Only one Run may be in progress.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return Report{}, ErrAlreadyRunning
	}
	o.running = true
	o.session = uuid.NewString()
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	report := Report{SessionID: o.sessionID()}
	o.setState(StateUnprovisioned, "run started")

	err := o.run(ctx, &report)
	if err != nil {
		o.events.Log(log.NewErrorEvent(report.SessionID, log.LayerOrchestrator, err.Error(), o.State().String()))
		o.setState(StateFailed, err.Error())
	}
	report.State = o.State()
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, report *Report) error {
	identity, err := credstore.LoadIdentity(o.deps.Store)
	if err != nil {
		return err
	}

	next, rec, err := o.Check(ctx)
	if err != nil {
		return err
	}

	joined := false
	if next == StateAwaitingCredentials {
		o.setState(StateAwaitingCredentials, MethodName(o.config.Method))
		switch m := o.config.Method.(type) {
		case SoftAPUDP:
			rec, err = o.acquireSoftAP(ctx, m, identity, report)
		case SmartConfig:
			rec, err = o.acquireSmartConfig(ctx, identity, report)
			joined = err == nil
		default:
			err = fmt.Errorf("provisioning: unsupported method %T", m)
		}
		if err != nil {
			return err
		}
		o.setState(StateCredentialsReceived, "")
	}

	report.Record = rec
	o.setState(StateApplyingCredentials, "")
	if !joined {
		if err := o.JoinNetwork(ctx, rec.SSID, rec.Password); err != nil {
			return err
		}
	}

	if rec.Token == "" {
		report.AlreadyBound = true
		o.setState(StateBound, "no pending token")
		return nil
	}

	o.setState(StateBindingInProgress, "")
	result := o.deps.Binder.Bind(ctx, identity, rec.Token)
	report.Binding = &result
	if result.Outcome != binding.OutcomeConfirmed {
		if result.Err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBindingFailed, result, result.Err)
		}
		return fmt.Errorf("%w: %s", ErrBindingFailed, result)
	}

	if err := credstore.ClearToken(o.deps.Store); err != nil {
		o.debugLog("Orchestrator: failed to clear consumed token", "error", err)
	}
	report.Record.Token = ""
	o.setState(StateBound, result.String())
	return nil
}

// acquireSoftAP brings up the access point and waits for a credentials
// command. A TOKEN_ONLY command is stored by the listener, which is re-armed for
// the rest of the session budget.
func (o *Orchestrator) acquireSoftAP(ctx context.Context, m SoftAPUDP, id credstore.Identity, report *Report) (credstore.Record, error) {
	if err := o.deps.Radio.StartSoftAP(ctx, m.SSID, m.Password); err != nil {
		return credstore.Record{}, fmt.Errorf("start soft-AP: %w", err)
	}
	stop := o.startWaitingCues(ctx, id)
	defer func() {
		stop()
		if err := o.deps.Radio.StopSoftAP(context.WithoutCancel(ctx)); err != nil {
			o.debugLog("Orchestrator: failed to stop soft-AP", "error", err)
		}
	}()

	deadline := time.Now().Add(o.config.SessionTimeout)
	for {
		result, err := o.listenOnce(ctx, deadline, report)
		if err != nil {
			return credstore.Record{}, err
		}

		switch result.Outcome {
		case listener.OutcomeCredentials:
			// The listener persisted the full record, token included.
			return result.Record, nil
		case listener.OutcomeTokenOnly:
			// The listener already stored the token; a later credentials
			// command carries its own.
			o.debugLog("Orchestrator: token received, waiting for credentials")
		default:
			return credstore.Record{}, listenerError(result)
		}
	}
}

// acquireSmartConfig joins the network announced over SmartConfig and
// waits for the binding token on it. The network is persisted together
// with the token so a stored network always carries its pending token.
func (o *Orchestrator) acquireSmartConfig(ctx context.Context, id credstore.Identity, report *Report) (credstore.Record, error) {
	stop := o.startWaitingCues(ctx, id)
	defer stop()

	ssid, password, err := o.deps.Radio.SmartConfig(ctx)
	if err != nil {
		return credstore.Record{}, fmt.Errorf("smartconfig: %w", err)
	}
	if err := o.JoinNetwork(ctx, ssid, password); err != nil {
		return credstore.Record{}, err
	}

	deadline := time.Now().Add(o.config.SessionTimeout)
	result, err := o.listenOnce(ctx, deadline, report)
	if err != nil {
		return credstore.Record{}, err
	}

	switch result.Outcome {
	case listener.OutcomeCredentials:
		// The app sent a full record; it is already persisted.
		return result.Record, nil
	case listener.OutcomeTokenOnly:
		rec := credstore.Record{SSID: ssid, Password: password, Token: result.Token}
		if err := credstore.SaveRecord(o.deps.Store, rec); err != nil {
			return credstore.Record{}, fmt.Errorf("persist record: %w", err)
		}
		return rec, nil
	default:
		return credstore.Record{}, listenerError(result)
	}
}

// listenOnce runs one listener session in its own goroutine for the time
// left until deadline.
func (o *Orchestrator) listenOnce(ctx context.Context, deadline time.Time, report *Report) (listener.Result, error) {
	budget := time.Until(deadline)
	if budget <= 0 {
		result := listener.Result{Outcome: listener.OutcomeTimedOut}
		report.Listener = &result
		return result, listenerError(result)
	}

	l := o.deps.NewListener(budget)
	done := make(chan listener.Result, 1)
	go func() {
		done <- l.Run(ctx)
	}()

	result := <-done
	report.Listener = &result
	o.debugLog("Orchestrator: listener finished", "result", result.String())
	return result, nil
}

// startWaitingCues starts the indicator and the mDNS advert. The returned
// function stops both and restores the steady indicator.
func (o *Orchestrator) startWaitingCues(ctx context.Context, id credstore.Identity) func() {
	if o.deps.Indicator != nil {
		o.deps.Indicator.Start(ctx)
	}

	advertised := false
	if o.deps.Advertiser != nil {
		info := &discovery.ProvisioningInfo{
			ProductID:    firstNonEmpty(o.config.ProductID, id.ProductID),
			DeviceName:   firstNonEmpty(o.config.DeviceName, id.DeviceName),
			ProtoVersion: version.Current,
			Port:         o.config.ListenerPort,
		}
		if err := o.deps.Advertiser.Advertise(ctx, info); err != nil {
			o.debugLog("Orchestrator: mDNS advert failed", "error", err)
		} else {
			advertised = true
		}
	}

	return func() {
		if o.deps.Indicator != nil {
			if err := o.deps.Indicator.Stop(); err != nil {
				o.debugLog("Orchestrator: failed to stop indicator", "error", err)
			}
		}
		if advertised {
			if err := o.deps.Advertiser.Stop(); err != nil {
				o.debugLog("Orchestrator: failed to stop mDNS advert", "error", err)
			}
		}
	}
}

// JoinNetwork switches the radio to station mode on ssid and polls for an
// address with the configured bounds. It does not change the provisioning
// state; prov-device uses it to join its fallback network.
func (o *Orchestrator) JoinNetwork(ctx context.Context, ssid, password string) error {
	if err := o.deps.Radio.Connect(ctx, ssid, password); err != nil {
		return fmt.Errorf("join %q: %w", ssid, err)
	}

	for i := 0; i < o.config.AddressPollAttempts; i++ {
		ok, err := o.deps.Radio.HasAddress(ctx)
		if err != nil {
			o.debugLog("Orchestrator: address check failed", "error", err)
		}
		if ok {
			o.debugLog("Orchestrator: station address acquired", "polls", i+1)
			return nil
		}
		if err := o.config.Sleep(ctx, o.config.AddressPollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %d polls", ErrNoAddress, o.config.AddressPollAttempts)
}

func (o *Orchestrator) setState(state State, reason string) {
	o.mu.Lock()
	old := o.state
	o.state = state
	session := o.session
	handlers := make([]StateChangeHandler, len(o.handlers))
	copy(handlers, o.handlers)
	o.mu.Unlock()

	if old == state {
		return
	}

	o.debugLog("Orchestrator: state change", "from", old.String(), "to", state.String())
	o.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: session,
		Direction: log.DirectionNone,
		Layer:     log.LayerOrchestrator,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityProvisioning,
			OldState: old.String(),
			NewState: state.String(),
			Reason:   reason,
		},
	})

	for _, h := range handlers {
		h(old, state)
	}
}

func (o *Orchestrator) sessionID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.session
}

func (o *Orchestrator) debugLog(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func listenerError(r listener.Result) error {
	if r.Err != nil {
		return fmt.Errorf("%w: %s: %w", ErrListenerFailed, r.Outcome, r.Err)
	}
	return fmt.Errorf("%w: %s", ErrListenerFailed, r.Outcome)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
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
