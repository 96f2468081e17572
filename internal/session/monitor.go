package session

import (
	"sync"
	"time"
)

// Status classifies an attempt's compliance.
type Status string

const (
	StatusCompliant Status = "compliant"
	StatusWarned    Status = "warned"
	StatusViolated  Status = "violated"
)

// Monitor is the compliance state machine over {Compliant, Warned, Violated}.
// It decrements the warning budget on focus-loss signals, measures how long
// the tab stayed hidden, and classifies the session. Violated is terminal:
// the only exit is automatic submission.
//
// Budget changes are pushed through the persist callback so the remaining
// allowance survives a reload.
type Monitor struct {
	mu        sync.Mutex
	now       func() time.Time
	persist   func(budget float64)
	budget    float64
	hiddenAt  time.Time
	hideLimit time.Duration
	status    Status
}

// NewMonitor creates a Monitor starting from the given remaining budget
// (a resumed attempt continues where it left off).
func NewMonitor(budget float64, now func() time.Time, persist func(float64)) *Monitor {
	m := &Monitor{
		now:       now,
		persist:   persist,
		budget:    budget,
		hideLimit: HideViolationThreshold,
		status:    StatusCompliant,
	}
	if budget < InitialWarningBudget {
		m.status = StatusWarned
	}
	if budget <= 0 {
		m.status = StatusViolated
	}
	return m
}

// TabHidden handles a transition to hidden visibility: the hide instant is
// recorded and one warning is spent.
func (m *Monitor) TabHidden() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusViolated {
		return m.status
	}

	m.hiddenAt = m.now()
	m.spend(TabHiddenPenalty)
	return m.status
}

// TabVisible handles the return to visible. A hide lasting at least the
// hide limit, or an exhausted budget, forces the Violated state.
func (m *Monitor) TabVisible() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusViolated {
		return m.status
	}

	if !m.hiddenAt.IsZero() {
		away := m.now().Sub(m.hiddenAt)
		m.hiddenAt = time.Time{}
		if away >= m.hideLimit || m.budget <= 0 {
			m.status = StatusViolated
		}
	}
	return m.status
}

// FullscreenExited handles a detected fullscreen exit-and-recover cycle.
func (m *Monitor) FullscreenExited() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusViolated {
		return m.status
	}

	m.spend(FullscreenExitPenalty)
	return m.status
}

// Budget returns the remaining warning budget.
func (m *Monitor) Budget() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget
}

// Current returns the current compliance status.
func (m *Monitor) Current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// spend deducts from the budget, persists it, and updates the status.
// Callers hold the mutex. Exhaustion is sticky: the budget is never
// restored except by the terminal-event reset.
func (m *Monitor) spend(penalty float64) {
	m.budget -= penalty
	if m.persist != nil {
		m.persist(m.budget)
	}
	if m.budget <= 0 {
		m.status = StatusViolated
	} else {
		m.status = StatusWarned
	}
}
