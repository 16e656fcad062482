package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler runs named one-shot tasks after a delay.
//
// Scheduling a name that is already pending replaces the old task. Every task
// carries a generation; a timer that fires after its task was replaced or
// cancelled finds a newer generation and does nothing.
type Scheduler struct {
	clock clock.Clock

	mu     sync.Mutex
	gen    uint64
	tasks  map[string]scheduled
	closed bool
}

type scheduled struct {
	gen   uint64
	timer *clock.Timer
}

// NewScheduler returns a scheduler driven by c. A nil clock means wall time.
func NewScheduler(c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.New()
	}
	return &Scheduler{clock: c, tasks: make(map[string]scheduled)}
}

// Schedule runs fn once after d unless the task is replaced or cancelled
// first. fn runs on its own goroutine. Scheduling on a closed scheduler is
// a no-op.
func (s *Scheduler) Schedule(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked(name)

	s.gen++
	gen := s.gen
	timer := s.clock.AfterFunc(d, func() {
		if s.claim(name, gen) {
			fn()
		}
	})
	s.tasks[name] = scheduled{gen: gen, timer: timer}
}

// claim removes the task if gen is still current and reports whether the
// caller should run it.
func (s *Scheduler) claim(name string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	if !ok || t.gen != gen {
		return false
	}
	delete(s.tasks, name)
	return true
}

// Cancel drops a pending task. It reports whether one was pending.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(name)
}

func (s *Scheduler) stopLocked(name string) bool {
	t, ok := s.tasks[name]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, name)
	return true
}

// Pending reports whether name is scheduled and has not fired yet.
func (s *Scheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Close cancels every pending task and refuses new ones.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.tasks {
		s.stopLocked(name)
	}
	s.closed = true
}

// Now returns the scheduler clock's current time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }
