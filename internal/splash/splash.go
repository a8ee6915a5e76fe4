// Package splash sequences the branded splash screen shown before the catalog.
package splash

import (
	"sync"
	"time"
)

// DefaultDuration is how long the splash stays up on a session's first visit.
const DefaultDuration = 2500 * time.Millisecond

// State is the presentation state of a session.
type State int

const (
	StateSplash State = iota
	StateCatalog
)

func (s State) String() string {
	if s == StateCatalog {
		return "catalog"
	}
	return "splash"
}

// Sequence is a one-shot splash to catalog transition. The transition is
// irreversible once it fires, and Stop suppresses it if it has not.
type Sequence struct {
	mu       sync.Mutex
	duration time.Duration
	state    State
	timer    *time.Timer
	deadline time.Time
	stopped  bool
	done     chan struct{}
	now      func() time.Time
}

// New returns a sequence in StateSplash. A non-positive d uses DefaultDuration.
func New(d time.Duration) *Sequence {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Sequence{
		duration: d,
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Start arms the transition timer. Calls after the first, or after Stop, do nothing.
func (s *Sequence) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil || s.stopped || s.state == StateCatalog {
		return
	}
	s.deadline = s.now().Add(s.duration)
	s.timer = time.AfterFunc(s.duration, s.fire)
}

func (s *Sequence) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.state == StateCatalog {
		return
	}
	s.state = StateCatalog
	close(s.done)
}

// Stop cancels a pending transition. The state is left as it was.
func (s *Sequence) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
}

// State reports the current state.
func (s *Sequence) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining is the time left before the transition, or zero once it has
// fired, been stopped, or was never started.
func (s *Sequence) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || s.stopped || s.state == StateCatalog {
		return 0
	}
	left := s.deadline.Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

// Done is closed when the sequence reaches StateCatalog. It never closes
// for a stopped sequence.
func (s *Sequence) Done() <-chan struct{} {
	return s.done
}
