package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured is returned when a quiz's schedule fields are absent or
// unparsable. Callers must treat the quiz as not yet configured: no session
// may start.
var ErrNotConfigured = errors.New("quiz schedule is not configured")

// Schedule is a quiz's configured time window. Exactly one mode is
// authoritative: duration (relative to each participant's anchor) or a
// fixed calendar window shared by all participants.
type Schedule struct {
	IsDurationBased bool
	Duration        string // DD:HH:MM:SS
	StartDate       string // DD-MM-YYYY
	StartTime       string // HH:MM
	EndDate         string
	EndTime         string
}

// Window is the resolved absolute attempt window for one participant.
type Window struct {
	Open     time.Time
	Deadline time.Time
}

// Remaining returns the time left until the deadline, floored at zero.
func (w Window) Remaining(now time.Time) time.Duration {
	if d := w.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Started reports whether the window has opened.
func (w Window) Started(now time.Time) bool { return !now.Before(w.Open) }

// Ended reports whether the window has closed.
func (w Window) Ended(now time.Time) bool { return !now.Before(w.Deadline) }

// ParseSpan parses a DD:HH:MM:SS duration string.
func ParseSpan(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("parse span %q: want DD:HH:MM:SS", s)
	}
	var fields [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("parse span %q: bad field %q", s, p)
		}
		fields[i] = n
	}
	return time.Duration(fields[0])*24*time.Hour +
		time.Duration(fields[1])*time.Hour +
		time.Duration(fields[2])*time.Minute +
		time.Duration(fields[3])*time.Second, nil
}

// FormatSpan renders a duration as DD:HH:MM:SS (the inverse of ParseSpan).
func FormatSpan(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		total/86400, total%86400/3600, total%3600/60, total%60)
}

// ParseDateTime parses a DD-MM-YYYY date plus HH:MM time into a UTC instant.
// Values compare against canonical clock readings, which are already
// normalized into one zone.
func ParseDateTime(date, clock string) (time.Time, error) {
	d := strings.Split(date, "-")
	if len(d) != 3 {
		return time.Time{}, fmt.Errorf("parse date %q: want DD-MM-YYYY", date)
	}
	c := strings.Split(clock, ":")
	if len(c) != 2 {
		return time.Time{}, fmt.Errorf("parse time %q: want HH:MM", clock)
	}
	day, err1 := strconv.Atoi(d[0])
	month, err2 := strconv.Atoi(d[1])
	year, err3 := strconv.Atoi(d[2])
	hour, err4 := strconv.Atoi(c[0])
	minute, err5 := strconv.Atoi(c[1])
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q %q: %w", date, clock, err)
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("parse %q %q: out of range", date, clock)
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

// Resolve converts a schedule plus the current canonical time (and, for
// duration mode, the participant's attempt anchor) into the absolute attempt
// window.
//
// Fixed mode ignores the anchor entirely: the window is schedule-derived and
// identical for every participant. Duration mode opens at the anchor, or at
// now when no anchor exists yet; re-entry reuses the stored anchor verbatim
// so the window is never extended.
func Resolve(s Schedule, now, anchor time.Time) (Window, error) {
	if s.IsDurationBased {
		span, err := ParseSpan(s.Duration)
		if err != nil {
			return Window{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
		}
		open := anchor
		if open.IsZero() {
			open = now
		}
		return Window{Open: open, Deadline: open.Add(span)}, nil
	}

	if s.StartDate == "" || s.StartTime == "" || s.EndDate == "" || s.EndTime == "" {
		return Window{}, ErrNotConfigured
	}
	open, err := ParseDateTime(s.StartDate, s.StartTime)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	deadline, err := ParseDateTime(s.EndDate, s.EndTime)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if !deadline.After(open) {
		return Window{}, fmt.Errorf("%w: window ends before it starts", ErrNotConfigured)
	}
	return Window{Open: open, Deadline: deadline}, nil
}
