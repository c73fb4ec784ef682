package scraper

import (
	"context"
	"time"
)

// Throttle enforces a minimum delay between consecutive calls to Wait
type Throttle struct {
	delay time.Duration
	last  time.Time
	now   func() time.Time
}

// NewThrottle creates a throttle. A zero delay never blocks.
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay, now: time.Now}
}

// Wait blocks until delay has passed since the previous Wait returned.
// The first call returns immediately.
func (t *Throttle) Wait(ctx context.Context) error {
	if !t.last.IsZero() && t.delay > 0 {
		remaining := t.delay - t.now().Sub(t.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	t.last = t.now()
	return nil
}
