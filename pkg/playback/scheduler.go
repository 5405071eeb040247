package playback

import (
	"sync"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call. It returns false if the call already ran or was stopped.
	Stop() bool
}

// Scheduler creates timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the wall clock via time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler holds scheduled calls until the test fires them.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
	delays  []time.Duration
}

// NewManualScheduler creates an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTimer struct {
	s     *ManualScheduler
	f     func()
	delay time.Duration
}

func (t *manualTimer) Stop() bool {
	return t.s.remove(t)
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, f: f, delay: d}
	s.pending = append(s.pending, t)
	s.delays = append(s.delays, d)
	return t
}

func (s *ManualScheduler) remove(t *manualTimer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Fire runs the oldest pending call synchronously. It reports whether there was one.
func (s *ManualScheduler) Fire() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()

	t.f()
	return true
}

// FireN fires up to n calls and returns how many ran.
func (s *ManualScheduler) FireN(n int) int {
	fired := 0
	for fired < n && s.Fire() {
		fired++
	}
	return fired
}

// Pending returns the number of scheduled calls that have neither run nor been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Delays returns the durations of every call scheduled so far, in order.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}
