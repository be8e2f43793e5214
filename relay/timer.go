package relay

import (
	"sync"
	"time"

	"safemove/model"
)

// Countdown tracks the remaining time of an active session. Remaining time
// is recomputed from the wall clock on every tick rather than decremented,
// so a suspended process picks up where the clock actually is.
type Countdown struct {
	mu       sync.Mutex
	deadline time.Time
	expired  bool
	now      func() time.Time
}

func NewCountdown(session *model.TripSession) *Countdown {
	return &Countdown{
		deadline: session.ExpiresAt(),
		now:      time.Now,
	}
}

// NewCountdownAt builds a countdown with an explicit deadline and clock,
// used by tests to advance virtual time deterministically
func NewCountdownAt(deadline time.Time, clock func() time.Time) *Countdown {
	if clock == nil {
		clock = time.Now
	}
	return &Countdown{deadline: deadline, now: clock}
}

func (c *Countdown) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deadline
}

// Remaining never goes negative
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.deadline.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired || !c.now().Before(c.deadline)
}

// Extend moves the deadline forward. An expired countdown stays expired:
// the session is over and the publisher has already been told to stop.
func (c *Countdown) Extend(extra time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired || !c.now().Before(c.deadline) {
		return false
	}
	c.deadline = c.deadline.Add(extra)
	return true
}

// markExpired flips to the terminal state exactly once
func (c *Countdown) markExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expired {
		return false
	}
	if c.now().Before(c.deadline) {
		return false
	}
	c.expired = true
	return true
}

// Start runs the countdown on the given cadence. onTick (optional) receives
// the remaining time each interval; onExpire fires exactly once when the
// deadline passes, after which the loop stops. The returned stop function
// is idempotent and safe to call from teardown paths.
func (c *Countdown) Start(interval time.Duration, onTick func(time.Duration), onExpire func()) (stop func()) {
	stopc := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() { close(stopc) })
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopc:
				return
			case <-ticker.C:
				remaining := c.Remaining()
				if remaining <= 0 {
					if c.markExpired() && onExpire != nil {
						onExpire()
					}
					return
				}
				if onTick != nil {
					onTick(remaining)
				}
			}
		}
	}()

	return stop
}
