package session

import (
	"sync/atomic"
	"time"

	"github.com/spardha-tech/spardha-backend/internal/schedule"
)

// Reason identifies which trigger fired the submission.
type Reason string

const (
	ReasonManual    Reason = "manual"
	ReasonDeadline  Reason = "deadline"
	ReasonViolation Reason = "violation"
)

// SubmitFunc performs the actual submission. It is invoked at most once per
// Runtime regardless of how many triggers race.
type SubmitFunc func(reason Reason)

// Runtime drives one active attempt: the compliance monitor, the deadline
// countdown, and manual submission all funnel into a single guarded
// TrySubmit, so three independent asynchronous triggers (visibility event,
// timer tick, explicit submit) cannot produce duplicate submissions.
type Runtime struct {
	monitor  *Monitor
	deadline *Countdown
	window   schedule.Window
	now      func() time.Time

	inFlight atomic.Bool
	submit   SubmitFunc
}

// NewRuntime builds a runtime for an attempt with the given resolved window
// and remaining warning budget. persistBudget is called on every budget
// change so the allowance survives reloads.
func NewRuntime(w schedule.Window, budget float64, now func() time.Time, persistBudget func(float64), submit SubmitFunc) *Runtime {
	r := &Runtime{
		window:  w,
		now:     now,
		submit:  submit,
		monitor: NewMonitor(budget, now, persistBudget),
	}
	r.deadline = NewCountdown(w.Deadline, now, func() {
		r.TrySubmit(ReasonDeadline)
	})
	return r
}

// Start begins the deadline countdown. If the window has already closed the
// submission fires immediately.
func (r *Runtime) Start() {
	r.deadline.Start()
}

// TabHidden applies a visibility-loss signal; a resulting violation submits.
func (r *Runtime) TabHidden() Status {
	return r.react(r.monitor.TabHidden())
}

// TabVisible applies a visibility-return signal; a resulting violation submits.
func (r *Runtime) TabVisible() Status {
	return r.react(r.monitor.TabVisible())
}

// FullscreenExited applies a fullscreen exit-cycle signal.
func (r *Runtime) FullscreenExited() Status {
	return r.react(r.monitor.FullscreenExited())
}

func (r *Runtime) react(s Status) Status {
	if s == StatusViolated {
		r.TrySubmit(ReasonViolation)
	}
	return s
}

// TrySubmit performs the submission once. Returns false when another trigger
// already claimed it.
func (r *Runtime) TrySubmit(reason Reason) bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		return false
	}
	r.deadline.Stop()
	if r.submit != nil {
		r.submit(reason)
	}
	return true
}

// Submitted reports whether submission has been triggered.
func (r *Runtime) Submitted() bool { return r.inFlight.Load() }

// Remaining returns the time left in the attempt window.
func (r *Runtime) Remaining() time.Duration { return r.window.Remaining(r.now()) }

// Budget returns the remaining warning budget.
func (r *Runtime) Budget() float64 { return r.monitor.Budget() }

// Status returns the current compliance status.
func (r *Runtime) Status() Status { return r.monitor.Current() }

// Close stops the timers without submitting (connection teardown).
func (r *Runtime) Close() {
	r.deadline.Stop()
}
