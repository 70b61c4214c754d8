package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff()

		expected := []time.Duration{
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second, // stays at max
		}

		for i, exp := range expected {
			base := b.Current()
			_ = b.Next()
			if base != exp {
				t.Errorf("Attempt %d: base = %v, want %v", i, base, exp)
			}
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff()
		limit := time.Duration(float64(InitialBackoff)*(1+JitterFactor)) + time.Millisecond

		for i := 0; i < 10; i++ {
			b.Reset()
			d := b.Next()
			if d < InitialBackoff || d > limit {
				t.Errorf("Sample %d: %v out of range [%v, %v]", i, d, InitialBackoff, limit)
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff()
		for i := 0; i < 5; i++ {
			b.Next()
		}
		if b.Current() <= InitialBackoff {
			t.Error("Backoff should have increased")
		}

		b.Reset()
		if b.Current() != InitialBackoff {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), InitialBackoff)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
	})

	t.Run("CustomConfig", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{
			Initial: 100 * time.Millisecond,
			Max:     500 * time.Millisecond,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}
		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Attempt %d: got %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("WaitCancelled", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Initial: time.Hour})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := b.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() = %v, want context.Canceled", err)
		}
	})
}

func fastRunner(max int) *Runner {
	return NewRunner(Config{
		MaxAttempts: max,
		Backoff:     NewBackoffWithConfig(BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond}),
	})
}

func TestRunnerSucceedsAfterRetries(t *testing.T) {
	r := fastRunner(5)

	var retries []int
	r.OnRetry(func(attempt int, _ time.Duration, _ error) {
		retries = append(retries, attempt)
	})

	calls := 0
	err := r.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		if attempt != calls {
			t.Errorf("attempt = %d, want %d", attempt, calls)
		}
		if attempt < 3 {
			return errors.New("listener timed out")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("retries = %v, want [1 2]", retries)
	}
	if r.State() != StateSucceeded {
		t.Errorf("State() = %v, want SUCCEEDED", r.State())
	}
}

func TestRunnerExhausted(t *testing.T) {
	r := fastRunner(3)
	cause := errors.New("bind rejected")

	calls := 0
	err := r.Do(context.Background(), func(context.Context, int) error {
		calls++
		return cause
	})

	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Do() = %v, want ErrAttemptsExhausted", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Do() = %v, want wrapped cause", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if r.State() != StateExhausted {
		t.Errorf("State() = %v, want EXHAUSTED", r.State())
	}
	if r.LastError() != cause {
		t.Errorf("LastError() = %v, want %v", r.LastError(), cause)
	}
}

func TestRunnerPermanent(t *testing.T) {
	r := fastRunner(5)
	cause := errors.New("identity missing")

	calls := 0
	err := r.Do(context.Background(), func(context.Context, int) error {
		calls++
		return Permanent(cause)
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, cause) || !IsPermanent(err) {
		t.Errorf("Do() = %v, want permanent %v", err, cause)
	}
	if r.State() != StateAborted {
		t.Errorf("State() = %v, want ABORTED", r.State())
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRunnerContextCancelled(t *testing.T) {
	r := NewRunner(Config{
		MaxAttempts: 5,
		Backoff:     NewBackoffWithConfig(BackoffConfig{Initial: time.Hour}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.OnRetry(func(int, time.Duration, error) { cancel() })

	err := r.Do(ctx, func(context.Context, int) error {
		return errors.New("failed")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
}

func TestRunnerStateChanges(t *testing.T) {
	r := fastRunner(2)

	var mu sync.Mutex
	var states []State
	r.OnStateChange(func(_, s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	_ = r.Do(context.Background(), func(context.Context, int) error {
		return errors.New("failed")
	})

	want := []State{StateRunning, StateWaiting, StateRunning, StateExhausted}
	mu.Lock()
	defer mu.Unlock()
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
}

func TestRunnerBusy(t *testing.T) {
	r := fastRunner(1)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- r.Do(context.Background(), func(context.Context, int) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if err := r.Do(context.Background(), func(context.Context, int) error { return nil }); !errors.Is(err, ErrRunnerBusy) {
		t.Errorf("second Do() = %v, want ErrRunnerBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Do() = %v", err)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateRunning, "RUNNING"},
		{StateWaiting, "WAITING"},
		{StateSucceeded, "SUCCEEDED"},
		{StateExhausted, "EXHAUSTED"},
		{StateAborted, "ABORTED"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
