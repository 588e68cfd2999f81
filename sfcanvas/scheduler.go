package sfcanvas

import (
	"sync"
	"time"
)

// FrameHandle cancels a requested frame. Cancel is synchronous and may be
// called any number of times.
type FrameHandle interface {
	Cancel()
}

// Scheduler runs callbacks on the next animation frame.
type Scheduler interface {
	RequestFrame(fn func(now time.Time)) FrameHandle
}

// ManualScheduler queues frames until Flush is called. Sessions drive it from
// their own ticker; tests drive it directly.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualFrame
}

var _ Scheduler = &ManualScheduler{}

type manualFrame struct {
	s         *ManualScheduler
	fn        func(time.Time)
	cancelled bool
}

func (f *manualFrame) Cancel() {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.cancelled = true
}

func (s *ManualScheduler) RequestFrame(fn func(now time.Time)) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &manualFrame{s: s, fn: fn}
	s.pending = append(s.pending, f)
	return f
}

// Pending is the number of frames waiting to run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.pending {
		if !f.cancelled {
			n++
		}
	}
	return n
}

// Flush runs every frame queued before the call. Frames requested while
// flushing wait for the next Flush. It returns how many frames ran.
func (s *ManualScheduler) Flush(now time.Time) int {
	s.mu.Lock()
	frames := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, f := range frames {
		s.mu.Lock()
		cancelled := f.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		f.fn(now)
		ran++
	}
	return ran
}
