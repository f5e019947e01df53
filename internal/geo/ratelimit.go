package geo

import (
	"sync"
	"time"
)

// FixedWindow admits at most limit events per window. The window starts at
// the first event after the previous one elapsed. It is process-local; in a
// multi-process deployment each process counts separately.
//
// Safe for concurrent use.
type FixedWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	start time.Time
	count int
}

// NewFixedWindow builds a limiter admitting limit events per window.
func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{limit: limit, window: window, now: time.Now}
}

// Allow consumes one slot and reports whether the event may proceed. It
// never blocks.
func (f *FixedWindow) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if f.start.IsZero() || now.Sub(f.start) >= f.window {
		f.start = now
		f.count = 0
	}
	if f.count >= f.limit {
		return false
	}
	f.count++
	return true
}

// Remaining reports the slots left in the current window.
func (f *FixedWindow) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.start.IsZero() || f.now().Sub(f.start) >= f.window {
		return f.limit
	}
	return f.limit - f.count
}
