package booking

import (
	"sync"
	"time"

	"cinetix-cli/model"
)

type CountdownOptions struct {
	// Interval between ticks. Defaults to DefaultTickInterval.
	Interval time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// OnTick receives the remaining time on every tick, including the first
	// one taken at start.
	OnTick func(bookingID string, remaining time.Duration)
	// OnExpire fires once, when the remaining time first reaches zero.
	OnExpire func(bookingID string)
}

// Countdown tracks the payment deadline of one pending booking on its own
// goroutine. Callbacks run on that goroutine.
type Countdown struct {
	bookingID string
	deadline  time.Time
	opts      CountdownOptions

	mu      sync.Mutex
	expired bool
	stopped bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// StartCountdown starts ticking for b. It starts nothing and returns false
// when the window is unknown or b is already paid.
func StartCountdown(b model.Booking, window PaymentWindow, opts CountdownOptions) (*Countdown, bool) {
	if !b.Pending() {
		return nil, false
	}
	deadline, ok := Deadline(b.BookedAt, window)
	if !ok {
		return nil, false
	}
	c := newCountdown(b.Id, deadline, opts)
	go c.run()
	return c, true
}

func newCountdown(bookingID string, deadline time.Time, opts CountdownOptions) *Countdown {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Countdown{
		bookingID: bookingID,
		deadline:  deadline,
		opts:      opts,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (c *Countdown) run() {
	defer close(c.done)
	if c.tick(c.opts.Now()) {
		return
	}
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if c.tick(c.opts.Now()) {
				return
			}
		}
	}
}

// tick reports whether the countdown is finished. Callbacks run without
// holding mu, so Stop never waits on a slow callback.
func (c *Countdown) tick(now time.Time) bool {
	c.mu.Lock()
	if c.stopped || c.expired {
		c.mu.Unlock()
		return true
	}
	remaining := Remaining(c.deadline, now)
	finished := remaining <= 0
	c.expired = finished
	c.mu.Unlock()

	if c.opts.OnTick != nil {
		c.opts.OnTick(c.bookingID, remaining)
	}
	if !finished {
		return false
	}
	if c.isStopped() {
		return true
	}
	if c.opts.OnExpire != nil {
		c.opts.OnExpire(c.bookingID)
	}
	return true
}

func (c *Countdown) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Stop halts the countdown. No callback starts after Stop returns; one that
// is already running finishes before Done is closed. Safe to call more than
// once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once the ticking goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) BookingID() string {
	return c.bookingID
}

func (c *Countdown) Deadline() time.Time {
	return c.deadline
}

func (c *Countdown) Remaining(now time.Time) time.Duration {
	return Remaining(c.deadline, now)
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
