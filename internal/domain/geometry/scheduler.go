package geometry

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display refresh at 60Hz
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler runs a callback once before the next display update.
// The returned cancel func prevents the callback if it has not run yet.
type FrameScheduler interface {
	Schedule(fn func()) (cancel func())
}

// TimerScheduler schedules frames on a fixed interval using time.AfterFunc
type TimerScheduler struct {
	interval time.Duration
}

// NewTimerScheduler creates a scheduler firing interval after each request.
// A non-positive interval uses DefaultFrameInterval.
func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TimerScheduler{interval: interval}
}

// Schedule implements FrameScheduler
func (s *TimerScheduler) Schedule(fn func()) func() {
	timer := time.AfterFunc(s.interval, fn)
	return func() { timer.Stop() }
}

// ManualScheduler queues frames until Flush is called. It lets tests and
// headless callers decide exactly when a display update happens.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  int
	pending map[int]func()
	order   []int
}

// NewManualScheduler creates an empty manual scheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[int]func())}
}

// Schedule implements FrameScheduler
func (s *ManualScheduler) Schedule(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.pending[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}
}

// Pending returns the number of queued, uncancelled frames
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush runs every queued frame in scheduling order and returns how many ran
func (s *ManualScheduler) Flush() int {
	s.mu.Lock()
	var fns []func()
	for _, id := range s.order {
		if fn, ok := s.pending[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.pending = make(map[int]func())
	s.order = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
