package light

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordOutput struct {
	mu     sync.Mutex
	colors []Color
	err    error
}

func (r *recordOutput) SetColor(c Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, c)
	return r.err
}

func (r *recordOutput) snapshot() []Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Color(nil), r.colors...)
}

func TestBreatherCyclesHueAndRestores(t *testing.T) {
	out := &recordOutput{}
	b := NewBreather(out, time.Millisecond, nil)

	b.Start(context.Background())
	assert.True(t, b.Running())
	require.Eventually(t, func() bool { return len(out.snapshot()) >= 5 }, time.Second, time.Millisecond)
	require.NoError(t, b.Stop())
	assert.False(t, b.Running())

	colors := out.snapshot()
	for i, c := range colors[:len(colors)-1] {
		assert.Equal(t, uint16(i%360), c.Hue)
		assert.True(t, c.On)
	}
	assert.Equal(t, Steady, colors[len(colors)-1])
}

func TestBreatherStartTwice(t *testing.T) {
	out := &recordOutput{}
	b := NewBreather(out, time.Hour, nil)

	b.Start(context.Background())
	b.Start(context.Background())
	require.NoError(t, b.Stop())

	// One hue step from the single goroutine plus the steady restore.
	assert.Len(t, out.snapshot(), 2)
}

func TestBreatherStopWhenIdle(t *testing.T) {
	out := &recordOutput{}
	require.NoError(t, NewBreather(out, 0, nil).Stop())
	assert.Equal(t, []Color{Steady}, out.snapshot())
}

func TestBreatherStopReportsOutputError(t *testing.T) {
	boom := errors.New("driver fault")
	out := &recordOutput{err: boom}
	assert.ErrorIs(t, NewBreather(out, 0, nil).Stop(), boom)
}

func TestLogOutput(t *testing.T) {
	out := NewLogOutput(nil)
	require.NoError(t, out.SetColor(Steady))

	last, sets := out.Last()
	assert.Equal(t, Steady, last)
	assert.Equal(t, 1, sets)
	assert.Equal(t, "hsl(300,100,100)", last.String())
	assert.Equal(t, "off", Color{}.String())
}
