// Package light drives the device's status light during provisioning.
package light

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultBreathPeriod is the delay between hue steps while breathing.
const DefaultBreathPeriod = 50 * time.Millisecond

// Color is a light state in HSL terms. Hue is 0..359, saturation and
// lightness are 0..100.
type Color struct {
	On         bool
	Hue        uint16
	Saturation uint16
	Lightness  uint16
}

// String returns the color in "hsl(h,s,l)" form, or "off".
func (c Color) String() string {
	if !c.On {
		return "off"
	}
	return fmt.Sprintf("hsl(%d,%d,%d)", c.Hue, c.Saturation, c.Lightness)
}

// Steady is the color shown outside provisioning.
var Steady = Color{On: true, Hue: 300, Saturation: 100, Lightness: 100}

// Output is a light driver.
type Output interface {
	SetColor(c Color) error
}

// OutputFunc adapts a function to Output.
type OutputFunc func(Color) error

// SetColor calls f(c).
func (f OutputFunc) SetColor(c Color) error { return f(c) }

// LogOutput is an Output that only logs. It remembers the last color set.
type LogOutput struct {
	logger *slog.Logger

	mu   sync.Mutex
	last Color
	sets int
}

// NewLogOutput creates a LogOutput. A nil logger discards messages.
func NewLogOutput(logger *slog.Logger) *LogOutput {
	return &LogOutput{logger: logger}
}

// SetColor records c.
func (o *LogOutput) SetColor(c Color) error {
	o.mu.Lock()
	o.last = c
	o.sets++
	o.mu.Unlock()

	if o.logger != nil {
		o.logger.Debug("light: set color", "color", c.String())
	}
	return nil
}

// Last returns the last color set and how many times SetColor was called.
func (o *LogOutput) Last() (Color, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.sets
}

// Breather cycles the hue through 0..359 until stopped, then restores Steady.
type Breather struct {
	out    Output
	period time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBreather creates a Breather. A period <= 0 uses DefaultBreathPeriod.
func NewBreather(out Output, period time.Duration, logger *slog.Logger) *Breather {
	if period <= 0 {
		period = DefaultBreathPeriod
	}
	return &Breather{out: out, period: period, logger: logger}
}

// Start begins breathing in a background goroutine. Calling Start while
// running has no effect.
func (b *Breather) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})
	go b.run(ctx, b.done)
}

// Running reports whether the breather is active.
func (b *Breather) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// Stop ends breathing and restores the steady color. It is safe to call
// when not running.
func (b *Breather) Stop() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return b.out.SetColor(Steady)
}

func (b *Breather) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	var hue uint16
	for {
		if err := b.out.SetColor(Color{On: true, Hue: hue, Saturation: 100, Lightness: 100}); err != nil {
			b.debugLog("light: set color failed", "error", err)
		}
		hue = (hue + 1) % 360

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Breather) debugLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
