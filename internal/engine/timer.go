package engine

import (
	"sync"
	"time"
)

// Countdown is a cancellable second-granularity countdown. Each fired tick
// schedules exactly one subsequent tick instead of running on a free
// interval, so a countdown can never double-fire or drift: on reaching
// zero it invokes its expiry callback exactly once and stops.
//
// Stop invalidates the current generation; a tick already in flight when
// Stop is called observes the stale generation and becomes a no-op.
type Countdown struct {
	mu        sync.Mutex
	interval  time.Duration
	remaining int
	gen       uint64
	timer     *time.Timer
	running   bool
	onTick    func(remaining int)
	onExpire  func()
}

// NewCountdown creates a countdown of the given number of seconds.
// Either callback may be nil. The default tick interval is one second;
// tests shorten it with SetInterval before Start.
func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		interval:  time.Second,
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// SetInterval overrides the tick interval. Must be called before Start.
func (c *Countdown) SetInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.interval = d
	}
}

// Start schedules the first tick. Starting a running countdown is a no-op.
// A countdown created with zero seconds expires on its first tick.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.interval, func() { c.fire(gen) })
}

// Stop cancels the countdown. Any tick already scheduled for the previous
// generation is discarded when it fires.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		// Stale tick from before a Stop. Swallow it.
		c.mu.Unlock()
		return
	}

	c.remaining--
	if c.remaining < 0 {
		c.remaining = 0
	}
	remaining := c.remaining
	tick := c.onTick

	var expire func()
	if remaining == 0 {
		c.running = false
		c.timer = nil
		expire = c.onExpire
	} else {
		c.timer = time.AfterFunc(c.interval, func() { c.fire(gen) })
	}
	// Callbacks run outside the lock so they may call back into the
	// countdown or its owning session.
	c.mu.Unlock()

	if tick != nil {
		tick(remaining)
	}
	if expire != nil {
		expire()
	}
}
