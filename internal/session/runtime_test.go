package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spardha-tech/spardha-backend/internal/schedule"
)

func testWindow(now time.Time, d time.Duration) schedule.Window {
	return schedule.Window{Open: now, Deadline: now.Add(d)}
}

func TestRuntimeSubmitsExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	var calls int32
	r := NewRuntime(testWindow(clock.now(), time.Hour), InitialWarningBudget, clock.now, nil, func(Reason) {
		atomic.AddInt32(&calls, 1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.TrySubmit(ReasonManual)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("submit called %d times, want 1", got)
	}
	if !r.Submitted() {
		t.Fatal("Submitted() = false after TrySubmit")
	}
	if r.TrySubmit(ReasonDeadline) {
		t.Fatal("TrySubmit succeeded twice")
	}
}

func TestRuntimeViolationSubmits(t *testing.T) {
	clock := newFakeClock()
	var reason Reason
	r := NewRuntime(testWindow(clock.now(), time.Hour), InitialWarningBudget, clock.now, nil, func(rs Reason) {
		reason = rs
	})

	r.TabHidden()
	clock.advance(HideViolationThreshold + time.Second)
	if got := r.TabVisible(); got != StatusViolated {
		t.Fatalf("status = %v, want violated", got)
	}
	if reason != ReasonViolation {
		t.Fatalf("submit reason = %q, want %q", reason, ReasonViolation)
	}

	// A manual submit after the violation already claimed the attempt.
	if r.TrySubmit(ReasonManual) {
		t.Fatal("manual submit went through after violation")
	}
}

func TestRuntimeExpiredWindowSubmitsOnStart(t *testing.T) {
	clock := newFakeClock()
	w := schedule.Window{
		Open:     clock.now().Add(-2 * time.Hour),
		Deadline: clock.now().Add(-time.Hour),
	}

	done := make(chan Reason, 1)
	r := NewRuntime(w, InitialWarningBudget, clock.now, nil, func(rs Reason) {
		done <- rs
	})
	r.Start()

	select {
	case rs := <-done:
		if rs != ReasonDeadline {
			t.Fatalf("submit reason = %q, want %q", rs, ReasonDeadline)
		}
	case <-time.After(time.Second):
		t.Fatal("expired window did not fire a submission")
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %v, want 0", r.Remaining())
	}
}

func TestCountdownStopPreventsFire(t *testing.T) {
	fired := make(chan struct{}, 1)
	c := NewCountdown(time.Now().Add(30*time.Millisecond), time.Now, func() {
		fired <- struct{}{}
	})
	c.interval = 10 * time.Millisecond
	c.Start()
	c.Stop()
	c.Stop() // idempotent

	select {
	case <-fired:
		t.Fatal("countdown fired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCountdownFiresOnce(t *testing.T) {
	var calls int32
	c := NewCountdown(time.Now().Add(15*time.Millisecond), time.Now, func() {
		atomic.AddInt32(&calls, 1)
	})
	c.interval = 5 * time.Millisecond
	c.Start()

	time.Sleep(80 * time.Millisecond)
	c.Stop()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("onZero called %d times, want 1", got)
	}
}
