package services

import (
	"sync"
	"time"
)

// ExpirySource tags where a reservation deadline came from. Sources form a
// strict precedence: an explicit deadline on the order beats a previously
// resolved one, which beats the payment intent's deadline, which beats the
// fallback computed from the order's creation time.
type ExpirySource int

const (
	SourceNone ExpirySource = iota
	SourceFallback
	SourceIntent
	SourceResolved
	SourceExplicit
)

// String returns a human-readable name for the expiry source
func (s ExpirySource) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceResolved:
		return "resolved"
	case SourceIntent:
		return "intent"
	case SourceFallback:
		return "fallback"
	default:
		return "none"
	}
}

// ExpiryCandidate pairs a deadline with the source that supplied it
type ExpiryCandidate struct {
	Source ExpirySource
	At     time.Time
}

// ResolveExpiry picks the deadline with the highest-precedence source from
// the candidates. Candidates with a zero time or no source are skipped. The
// second return value is false when nothing usable remains, in which case
// no deadline is synthesized and the caller must not run a countdown.
func ResolveExpiry(candidates ...ExpiryCandidate) (ExpiryCandidate, bool) {
	best := ExpiryCandidate{Source: SourceNone}
	for _, c := range candidates {
		if c.Source == SourceNone || c.At.IsZero() {
			continue
		}
		if c.Source > best.Source {
			best = c
		}
	}
	return best, best.Source != SourceNone
}

// FallbackExpiry derives a deadline from the order's creation time and the
// configured reservation window
func FallbackExpiry(createdAt time.Time, window time.Duration) ExpiryCandidate {
	return ExpiryCandidate{Source: SourceFallback, At: createdAt.Add(window)}
}

// Countdown drives a ticking timer toward a fixed deadline. Remaining time
// is recomputed from the wall clock on every tick rather than decremented,
// so a paused or slowed process never drifts the deadline. The expire
// callback fires at most once, even across Stop races.
type Countdown struct {
	expiresAt time.Time
	interval  time.Duration
	now       func() time.Time

	onTick   func(remaining time.Duration)
	onExpire func()

	mu      sync.Mutex
	fired   bool
	stopped bool
	stopCh  chan struct{}
}

// NewCountdown creates a countdown toward expiresAt ticking at the given
// interval
func NewCountdown(expiresAt time.Time, interval time.Duration, onTick func(time.Duration), onExpire func()) *Countdown {
	return &Countdown{
		expiresAt: expiresAt,
		interval:  interval,
		now:       time.Now,
		onTick:    onTick,
		onExpire:  onExpire,
		stopCh:    make(chan struct{}),
	}
}

// Remaining returns the time left until the deadline, floored at zero
func (c *Countdown) Remaining() time.Duration {
	remaining := c.expiresAt.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Start runs the countdown loop until the deadline passes or Stop is
// called. It blocks; callers run it on its own goroutine.
func (c *Countdown) Start() {
	if c.fire() {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.fire() {
				return
			}
		case <-c.stopCh:
			return
		}
	}
}

// fire reports the tick and returns true once the deadline has passed,
// invoking onExpire exactly once
func (c *Countdown) fire() bool {
	remaining := c.Remaining()

	c.mu.Lock()
	if c.stopped || c.fired {
		c.mu.Unlock()
		return true
	}
	if remaining > 0 {
		c.mu.Unlock()
		if c.onTick != nil {
			c.onTick(remaining)
		}
		return false
	}
	c.fired = true
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(0)
	}
	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}

// Stop halts the countdown without firing onExpire. Stopping an already
// expired or stopped countdown is a no-op.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
}
