package session

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for timer and monitor tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMonitorBudgetArithmetic(t *testing.T) {
	clock := newFakeClock()
	var persisted []float64
	m := NewMonitor(InitialWarningBudget, clock.now, func(b float64) {
		persisted = append(persisted, b)
	})

	// Two hide/show cycles and one fullscreen exit:
	// 5 - 1 - 1 - 0.5 = 2.5.
	m.TabHidden()
	clock.advance(2 * time.Second)
	if got := m.TabVisible(); got != StatusWarned {
		t.Fatalf("status after short hide = %v, want warned", got)
	}
	m.TabHidden()
	clock.advance(2 * time.Second)
	m.TabVisible()
	m.FullscreenExited()

	if got := m.Budget(); got != 2.5 {
		t.Fatalf("budget = %v, want 2.5", got)
	}
	if len(persisted) != 3 || persisted[2] != 2.5 {
		t.Fatalf("persisted budgets = %v", persisted)
	}
}

func TestMonitorLongHideViolates(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor(InitialWarningBudget, clock.now, nil)

	m.TabHidden()
	clock.advance(HideViolationThreshold)
	if got := m.TabVisible(); got != StatusViolated {
		t.Fatalf("status after %v hide = %v, want violated", HideViolationThreshold, got)
	}
}

func TestMonitorExhaustionIsSticky(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitor(1, clock.now, nil)

	if got := m.TabHidden(); got != StatusViolated {
		t.Fatalf("status = %v, want violated after budget hit zero", got)
	}

	// Further signals cannot leave the violated state or spend more budget.
	budget := m.Budget()
	m.TabVisible()
	m.FullscreenExited()
	m.TabHidden()
	if m.Current() != StatusViolated {
		t.Fatal("violated state is not terminal")
	}
	if m.Budget() != budget {
		t.Fatalf("budget moved after violation: %v -> %v", budget, m.Budget())
	}
}

func TestMonitorResumesWarnedState(t *testing.T) {
	clock := newFakeClock()

	// A resumed attempt with a partially spent budget starts warned.
	m := NewMonitor(3.5, clock.now, nil)
	if got := m.Current(); got != StatusWarned {
		t.Fatalf("resumed status = %v, want warned", got)
	}

	// A resumed attempt with an exhausted budget is violated immediately.
	m = NewMonitor(0, clock.now, nil)
	if got := m.Current(); got != StatusViolated {
		t.Fatalf("resumed status = %v, want violated", got)
	}
}
