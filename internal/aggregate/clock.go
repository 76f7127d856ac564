package aggregate

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClockStopped is returned when Stop is called more than once.
var ErrClockStopped = errors.New("job clock already stopped")

// Clock tracks the wall-clock span of a job.
type Clock struct {
	now     func() time.Time
	start   time.Time
	end     time.Time
	started bool
	stopped bool
	mu      sync.Mutex
}

// NewClock creates a clock using the given time source (time.Now if nil).
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Start records the start time. Only the first call has an effect.
func (c *Clock) Start() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.start = c.now()
		c.started = true
	}
	return c.start
}

// StartTime returns the recorded start time.
func (c *Clock) StartTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

// Elapsed returns the time since start without changing the clock.
// After Stop it returns the final span.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return 0
	}
	if c.stopped {
		return c.end.Sub(c.start)
	}
	return c.now().Sub(c.start)
}

// Stop records the end time. It must be called exactly once.
func (c *Clock) Stop() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return c.end, ErrClockStopped
	}
	if !c.started {
		c.start = c.now()
		c.started = true
	}
	c.end = c.now()
	c.stopped = true
	return c.end, nil
}

// FormatElapsed renders seconds as "{m}m {s:.2f}s", or "{s:.2f}s" below one minute.
func FormatElapsed(seconds float64) string {
	minutes := int(seconds / 60)
	rest := seconds - float64(minutes*60)
	if minutes > 0 {
		return fmt.Sprintf("%dm %.2fs", minutes, rest)
	}
	return fmt.Sprintf("%.2fs", rest)
}
