package match

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Coalescer is a debounced, last-value-wins write slot. Each Offer replaces
// the pending value and restarts the delay; once offers stop for the delay,
// exactly one write of the latest value happens. A failed write keeps the
// value pending and retries it after another delay until Stop.
type Coalescer[T any] struct {
	clock  clockwork.Clock
	delay  time.Duration
	write  func(context.Context, T) error
	logger *slog.Logger

	// writeMu keeps writes in order; a slow write never lands after a newer one.
	writeMu sync.Mutex

	mu      sync.Mutex
	timer   clockwork.Timer
	pending T
	has     bool
	stopped bool
	// seq increments on every Offer so a write never clears a newer value.
	seq uint64
}

func NewCoalescer[T any](clock clockwork.Clock, delay time.Duration, logger *slog.Logger, write func(context.Context, T) error) *Coalescer[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coalescer[T]{clock: clock, delay: delay, write: write, logger: logger}
}

func (c *Coalescer[T]) Offer(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = v
	c.has = true
	c.stopped = false
	c.seq++
	c.armLocked()
}

func (c *Coalescer[T]) armLocked() {
	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.delay, c.fire)
		return
	}
	c.timer.Reset(c.delay)
}

// Pending reports whether a value is waiting to be written.
func (c *Coalescer[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.has
}

func (c *Coalescer[T]) fire() {
	if err := c.Flush(context.Background()); err != nil {
		c.logger.Error("coalesced write failed, retrying", "error", err, "retry_in", c.delay)
	}
}

// Flush writes the pending value now, if any.
func (c *Coalescer[T]) Flush(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if !c.has {
		c.mu.Unlock()
		return nil
	}
	v, seq := c.pending, c.seq
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	if err := c.write(ctx, v); err != nil {
		c.mu.Lock()
		if !c.stopped {
			c.armLocked()
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.seq == seq {
		c.has = false
	}
	c.mu.Unlock()
	return nil
}

// Stop cancels any scheduled write or retry without performing it.
func (c *Coalescer[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}
