package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerRunsAfterDelay(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(mock)
	var ran atomic.Int32

	s.Schedule("t", time.Second, func() { ran.Add(1) })
	if !s.Pending("t") {
		t.Fatal("task should be pending")
	}

	mock.Add(999 * time.Millisecond)
	if ran.Load() != 0 {
		t.Fatal("task ran early")
	}
	mock.Add(time.Millisecond)
	waitFor(t, func() bool { return ran.Load() == 1 })
	if s.Pending("t") {
		t.Error("fired task should no longer be pending")
	}
}

func TestSchedulerReplaceDropsOldTask(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(mock)
	var first, second atomic.Int32

	s.Schedule("t", time.Second, func() { first.Add(1) })
	s.Schedule("t", 2*time.Second, func() { second.Add(1) })

	mock.Add(2 * time.Second)
	waitFor(t, func() bool { return second.Load() == 1 })
	if first.Load() != 0 {
		t.Error("replaced task must not run")
	}
}

func TestSchedulerStaleCallbackIsIgnored(t *testing.T) {
	s := NewScheduler(clock.NewMock())
	var ran atomic.Int32
	s.Schedule("t", time.Second, func() { ran.Add(1) })

	s.mu.Lock()
	gen := s.tasks["t"].gen
	s.mu.Unlock()

	// A replacement between the timer firing and the callback claiming it.
	s.Schedule("t", time.Hour, func() {})
	if s.claim("t", gen) {
		t.Error("stale generation must not be claimed")
	}
	if !s.Pending("t") {
		t.Error("the replacement must stay pending")
	}
}

func TestSchedulerCancelAndClose(t *testing.T) {
	mock := clock.NewMock()
	s := NewScheduler(mock)
	var ran atomic.Int32

	s.Schedule("a", time.Second, func() { ran.Add(1) })
	if !s.Cancel("a") {
		t.Error("Cancel should report a pending task")
	}
	if s.Cancel("a") {
		t.Error("second Cancel should report nothing pending")
	}

	s.Schedule("b", time.Second, func() { ran.Add(1) })
	s.Close()
	s.Schedule("c", time.Second, func() { ran.Add(1) })
	if s.Pending("b") || s.Pending("c") {
		t.Error("closed scheduler has no pending tasks")
	}

	mock.Add(time.Minute)
	time.Sleep(10 * time.Millisecond)
	if ran.Load() != 0 {
		t.Errorf("%d cancelled tasks ran", ran.Load())
	}
}
