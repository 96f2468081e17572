package schedule

import "time"

// Clock supplies the canonical wall-clock reading used for every
// schedule comparison. Injecting it keeps window math testable.
type Clock interface {
	Now() time.Time
}

// CanonicalClock normalizes wall-clock readings into a single canonical zone
// by subtracting the local timezone offset outside development. The same
// adjustment must be applied everywhere a timestamp is produced or consumed,
// otherwise window comparisons skew by the offset.
type CanonicalClock struct {
	// Development disables the offset adjustment (local dev runs in one zone).
	Development bool
}

// Now returns the canonical current time.
func (c CanonicalClock) Now() time.Time {
	now := time.Now()
	if c.Development {
		return now
	}
	_, offset := now.Zone()
	return now.Add(-time.Duration(offset) * time.Second)
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
