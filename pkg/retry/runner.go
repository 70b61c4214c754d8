package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Retry errors.
var (
	ErrAttemptsExhausted = errors.New("retry: attempts exhausted")
	ErrRunnerBusy        = errors.New("retry: runner already active")
)

// State is the runner state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateWaiting
	StateSucceeded
	StateExhausted
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateWaiting:
		return "WAITING"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateExhausted:
		return "EXHAUSTED"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// AttemptFunc runs one attempt. attempt is 1-based.
type AttemptFunc func(ctx context.Context, attempt int) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Config configures a Runner.
type Config struct {
	// MaxAttempts bounds the attempts (default 3).
	MaxAttempts int

	// Backoff computes the waits between attempts (default NewBackoff()).
	Backoff *Backoff

	// Logger for operational logging (optional).
	Logger *slog.Logger
}

// Runner runs an attempt function until it succeeds or gives up.
type Runner struct {
	mu sync.RWMutex

	config  Config
	state   State
	lastErr error

	onStateChange func(oldState, newState State)
	onRetry       func(attempt int, delay time.Duration, err error)
}

// NewRunner creates a Runner.
func NewRunner(config Config) *Runner {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.Backoff == nil {
		config.Backoff = NewBackoff()
	}
	return &Runner{config: config}
}

// State returns the runner state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastError returns the error of the most recent failed attempt.
func (r *Runner) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// OnStateChange sets a callback for state changes.
func (r *Runner) OnStateChange(fn func(oldState, newState State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onStateChange = fn
}

// OnRetry sets a callback invoked before each wait with the failed attempt
// number, the delay and the attempt's error.
func (r *Runner) OnRetry(fn func(attempt int, delay time.Duration, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRetry = fn
}

// Do runs fn until it returns nil, returns a Permanent error, ctx ends or
// MaxAttempts attempts failed. Exhaustion returns ErrAttemptsExhausted
// wrapping the last attempt's error.
func (r *Runner) Do(ctx context.Context, fn AttemptFunc) error {
	r.mu.Lock()
	if r.state == StateRunning || r.state == StateWaiting {
		r.mu.Unlock()
		return ErrRunnerBusy
	}
	old := r.state
	r.state = StateRunning
	r.lastErr = nil
	onStateChange := r.onStateChange
	r.mu.Unlock()

	if onStateChange != nil && old != StateRunning {
		onStateChange(old, StateRunning)
	}
	r.config.Backoff.Reset()

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			r.setState(StateRunning)
		}
		err := fn(ctx, attempt)
		if err == nil {
			r.setState(StateSucceeded)
			return nil
		}

		r.mu.Lock()
		r.lastErr = err
		onRetry := r.onRetry
		r.mu.Unlock()

		if IsPermanent(err) {
			r.setState(StateAborted)
			return err
		}
		if ctx.Err() != nil {
			r.setState(StateAborted)
			return ctx.Err()
		}
		if attempt >= r.config.MaxAttempts {
			r.setState(StateExhausted)
			return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempt, err)
		}

		delay := r.config.Backoff.Current()
		r.debugLog("Runner: attempt failed", "attempt", attempt, "retry_in", delay, "error", err)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}

		r.setState(StateWaiting)
		if err := r.config.Backoff.Wait(ctx); err != nil {
			r.setState(StateAborted)
			return err
		}
	}
}

func (r *Runner) setState(state State) {
	r.mu.Lock()
	old := r.state
	r.state = state
	fn := r.onStateChange
	r.mu.Unlock()

	if fn != nil && old != state {
		fn(old, state)
	}
}

func (r *Runner) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}
