// Package ratelimit spaces out calls to upstream APIs that throttle aggressively.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the SellerDynamics minimum spacing between calls.
const DefaultMinInterval = 60 * time.Second

// Gate permits one call per interval. The first call is free.
type Gate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	now      func() time.Time

	// held is the last granted slot, kept so Release can hand it back.
	held   *rate.Reservation
	heldAt time.Time
}

// NewGate creates a gate; a non-positive interval uses DefaultMinInterval.
func NewGate(interval time.Duration) *Gate {
	return newGate(interval, time.Now)
}

func newGate(interval time.Duration, now func() time.Time) *Gate {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		now:      now,
	}
}

// Interval returns the minimum spacing enforced by the gate.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Acquire claims the next slot and returns how long the caller must wait before using it.
func (g *Gate) Acquire() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	return g.limiter.ReserveN(now, 1).DelayFrom(now)
}

// TryAcquire claims the next slot only if it is usable now. Otherwise nothing is claimed
// and the remaining wait is returned.
func (g *Gate) TryAcquire() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	r := g.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay, false
	}
	g.held, g.heldAt = r, now
	return 0, true
}

// Wait claims the next slot and blocks until it is usable. If ctx ends first the slot is
// released and ctx's error returned.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := g.now()
	r := g.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	g.held, g.heldAt = r, now.Add(delay)
	g.mu.Unlock()

	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		g.Release()
		return ctx.Err()
	}
}

// Release returns the last slot granted by TryAcquire or Wait, so a call that failed
// before reaching upstream can be retried without waiting a full interval.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held == nil {
		return
	}
	g.held.CancelAt(g.heldAt)
	g.held = nil
}
