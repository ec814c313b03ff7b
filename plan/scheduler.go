package plan

import (
	"context"
	"sync"
	"time"
)

// FrameCallback runs once per frame with the frame timestamp
type FrameCallback func(now time.Time)

// FrameScheduler runs a single repeating per-frame task. RequestFrame
// replaces any previously registered task.
type FrameScheduler interface {
	RequestFrame(cb FrameCallback)
}

// TickerScheduler drives the frame task from a ticker until its context ends
type TickerScheduler struct {
	interval time.Duration
	clock    Clock

	mu sync.Mutex
	cb FrameCallback
}

// NewTickerScheduler returns a scheduler firing rate times per second
func NewTickerScheduler(rate int, clock Clock) *TickerScheduler {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(rate),
		clock:    clock,
	}
}

// Interval returns the time between frames
func (s *TickerScheduler) Interval() time.Duration {
	return s.interval
}

// RequestFrame registers the per-frame task
func (s *TickerScheduler) RequestFrame(cb FrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// Run fires the task on every tick and blocks until ctx is done
func (s *TickerScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			cb := s.cb
			s.mu.Unlock()
			if cb != nil {
				cb(s.clock.Now())
			}
		}
	}
}

// ManualScheduler runs the frame task only when stepped
type ManualScheduler struct {
	mu sync.Mutex
	cb FrameCallback
}

// NewManualScheduler returns an idle manual scheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// RequestFrame registers the per-frame task
func (s *ManualScheduler) RequestFrame(cb FrameCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
}

// Step runs one frame at the given time. It returns false when no task is registered.
func (s *ManualScheduler) Step(now time.Time) bool {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(now)
	return true
}
