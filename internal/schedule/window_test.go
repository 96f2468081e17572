package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseSpan(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:30:00", 30 * time.Minute, false},
		{"01:02:03:04", 24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second, false},
		{"00:00:00:00", 0, false},
		{"00:30:00", 0, true},
		{"aa:00:00:00", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseSpan(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSpan(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpan(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSpan(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFormatSpanRoundTrip(t *testing.T) {
	span := 24*time.Hour + 2*time.Hour + 3*time.Minute + 4*time.Second
	s := FormatSpan(span)
	if s != "01:02:03:04" {
		t.Fatalf("FormatSpan = %q", s)
	}
	back, err := ParseSpan(s)
	if err != nil {
		t.Fatalf("ParseSpan(%q): %v", s, err)
	}
	if back != span {
		t.Fatalf("round trip = %v, want %v", back, span)
	}
}

func TestResolveFixedWindowIsParticipantIndependent(t *testing.T) {
	s := Schedule{
		StartDate: "07-04-2025", StartTime: "10:00",
		EndDate: "07-04-2025", EndTime: "10:45",
	}

	// Two resolver calls at different wall-clock instants with different
	// anchors must produce the same deadline: fixed windows are
	// schedule-derived, not anchor-derived.
	now1 := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)
	now2 := time.Date(2025, 4, 7, 10, 20, 0, 0, time.UTC)

	w1, err := Resolve(s, now1, time.Time{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	w2, err := Resolve(s, now2, now2.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if !w1.Deadline.Equal(w2.Deadline) {
		t.Fatalf("fixed deadlines differ: %v vs %v", w1.Deadline, w2.Deadline)
	}
	want := time.Date(2025, 4, 7, 10, 45, 0, 0, time.UTC)
	if !w1.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", w1.Deadline, want)
	}
}

func TestResolveDurationModeSeedsAndReusesAnchor(t *testing.T) {
	s := Schedule{IsDurationBased: true, Duration: "00:00:30:00"}
	start := time.Date(2025, 4, 7, 12, 0, 0, 0, time.UTC)

	// No anchor yet: window opens now.
	w, err := Resolve(s, start, time.Time{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !w.Open.Equal(start) {
		t.Fatalf("open = %v, want %v", w.Open, start)
	}
	if !w.Deadline.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("deadline = %v, want %v", w.Deadline, start.Add(30*time.Minute))
	}

	// Re-entry ten minutes later reuses the anchor verbatim: the deadline
	// does not move.
	later := start.Add(10 * time.Minute)
	w2, err := Resolve(s, later, start)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !w2.Open.Equal(start) || !w2.Deadline.Equal(w.Deadline) {
		t.Fatalf("re-entry extended the window: %+v vs %+v", w2, w)
	}
	if got := w2.Remaining(later); got != 20*time.Minute {
		t.Fatalf("remaining = %v, want 20m", got)
	}
}

func TestResolveUnconfigured(t *testing.T) {
	now := time.Now()
	cases := []Schedule{
		{},
		{StartDate: "07-04-2025", StartTime: "10:00"},
		{IsDurationBased: true},
		{IsDurationBased: true, Duration: "bogus"},
		{StartDate: "07-04-2025", StartTime: "11:00", EndDate: "07-04-2025", EndTime: "10:00"},
	}
	for i, s := range cases {
		if _, err := Resolve(s, now, time.Time{}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("case %d: expected ErrNotConfigured, got %v", i, err)
		}
	}
}

func TestWindowEdgePredicates(t *testing.T) {
	open := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
	w := Window{Open: open, Deadline: open.Add(time.Hour)}

	if w.Started(open.Add(-time.Second)) {
		t.Fatal("window started early")
	}
	if !w.Started(open) {
		t.Fatal("window not started at open instant")
	}
	if w.Ended(w.Deadline.Add(-time.Second)) {
		t.Fatal("window ended early")
	}
	if !w.Ended(w.Deadline) {
		t.Fatal("window not ended at deadline instant")
	}
	if w.Remaining(w.Deadline.Add(time.Minute)) != 0 {
		t.Fatal("remaining went negative")
	}
}

func TestCanonicalClockDevelopmentPassthrough(t *testing.T) {
	c := CanonicalClock{Development: true}
	before := time.Now()
	got := c.Now()
	if got.Before(before.Add(-time.Second)) || got.After(before.Add(time.Second)) {
		t.Fatalf("development clock should track time.Now, got %v", got)
	}
}
