package session

import (
	"sync"
	"time"
)

// Countdown is a one-second tick loop toward a fixed instant. The starting
// delta is recomputed from the injected clock when the loop starts, so a
// delayed start never produces a negative or wildly large initial value.
// The zero-crossing callback fires exactly once, and Stop is idempotent.
type Countdown struct {
	now      func() time.Time
	until    time.Time
	onZero   func()
	interval time.Duration

	stopOnce sync.Once
	fireOnce sync.Once
	done     chan struct{}
}

// NewCountdown creates a countdown toward until. Call Start to begin ticking.
func NewCountdown(until time.Time, now func() time.Time, onZero func()) *Countdown {
	return &Countdown{
		now:      now,
		until:    until,
		onZero:   onZero,
		interval: time.Second,
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. If the instant has already passed the
// callback fires immediately.
func (c *Countdown) Start() {
	go c.run()
}

func (c *Countdown) run() {
	if !c.until.After(c.now()) {
		c.fire()
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// Recompute against the clock instead of counting ticks, so
			// scheduling delays cannot stretch the window.
			if !c.until.After(c.now()) {
				c.fire()
				return
			}
		}
	}
}

func (c *Countdown) fire() {
	c.fireOnce.Do(func() {
		if c.onZero != nil {
			c.onZero()
		}
	})
}

// Remaining returns the time left until the target instant, floored at zero.
func (c *Countdown) Remaining() time.Duration {
	if d := c.until.Sub(c.now()); d > 0 {
		return d
	}
	return 0
}

// Stop halts the loop without firing. Stopping an already-stopped countdown
// is a no-op.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
