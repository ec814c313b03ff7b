package plan

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// clock
// ---------------------------------------------------------------------------

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, start.Add(1500*time.Millisecond), c.Now())

	later := start.Add(time.Hour)
	c.SetTime(later)
	assert.Equal(t, later, c.Now())
}

// ---------------------------------------------------------------------------
// schedulers
// ---------------------------------------------------------------------------

func TestNewTickerScheduler_Defaults(t *testing.T) {
	s := NewTickerScheduler(0, nil)
	assert.Equal(t, time.Second/DefaultFrameRate, s.Interval())

	s = NewTickerScheduler(50, nil)
	assert.Equal(t, 20*time.Millisecond, s.Interval())
}

func TestTickerScheduler_Run(t *testing.T) {
	clock := NewMockClock(time.Unix(1000, 0))
	s := NewTickerScheduler(200, clock)

	var calls atomic.Int32
	var lastNow atomic.Value
	s.RequestFrame(func(now time.Time) {
		lastNow.Store(now)
		calls.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, time.Unix(1000, 0), lastNow.Load(), "frame time comes from the clock")
}

func TestTickerScheduler_ReplacesCallback(t *testing.T) {
	s := NewTickerScheduler(200, nil)

	var first, second atomic.Int32
	s.RequestFrame(func(time.Time) { first.Add(1) })
	s.RequestFrame(func(time.Time) { second.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool { return second.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestManualScheduler(t *testing.T) {
	s := NewManualScheduler()
	assert.False(t, s.Step(time.Now()), "no task registered")

	var got []time.Time
	s.RequestFrame(func(now time.Time) { got = append(got, now) })

	t0 := time.Unix(0, 0)
	assert.True(t, s.Step(t0))
	assert.True(t, s.Step(t0.Add(16*time.Millisecond)))
	assert.Equal(t, []time.Time{t0, t0.Add(16 * time.Millisecond)}, got)
}

// ---------------------------------------------------------------------------
// session
// ---------------------------------------------------------------------------

func TestSession_FlushFPS(t *testing.T) {
	t0 := time.Unix(100, 0)
	s := &Session{LastUpdate: t0}

	for i := 0; i < 9; i++ {
		s.countFrame()
		assert.False(t, s.flushFPS(t0.Add(time.Duration(i+1)*100*time.Millisecond)))
	}
	s.countFrame()
	require.True(t, s.flushFPS(t0.Add(time.Second)), "flushes exactly at the one second mark")
	assert.Equal(t, 10, s.FPS)
	assert.Zero(t, s.FrameCount)
	assert.Equal(t, uint64(10), s.TotalFrames)
	assert.Equal(t, t0.Add(time.Second), s.LastUpdate)

	// a long stall still reports the frames actually counted
	s.countFrame()
	require.True(t, s.flushFPS(t0.Add(5*time.Second)))
	assert.Equal(t, 1, s.FPS)
}

func TestFormatCameraPos(t *testing.T) {
	tests := []struct {
		in   math32.Vector3
		want string
	}{
		{math32.Vec3(60, 50, 80), "60, 50, 80"},
		{math32.Vec3(59.6, 50.4, -0.4), "60, 50, 0"},
		{math32.Vec3(-12.5, 0.5, 99.49), "-13, 1, 99"},
	}
	for _, tt := range tests {
		if got := FormatCameraPos(tt.in); got != tt.want {
			t.Errorf("FormatCameraPos(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
