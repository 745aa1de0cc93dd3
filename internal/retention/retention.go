// Package retention removes delivered orders from a viewer's store
// after a fixed dwell time.
package retention

import (
	"context"
	"sync"
	"time"
)

const (
	// Dwell is how long a delivered order stays visible.
	Dwell = 120 * time.Second
	// SweepEvery is the display-refresh tick that also catches
	// one-shot timers delayed past their deadline.
	SweepEvery = time.Second
)

type entry struct {
	start time.Time
	end   time.Time
	timer *time.Timer
}

// Registry owns every scheduled removal: it is the only component
// holding timer handles, so scheduling and cancellation cannot race
// between owners. At most one entry exists per order id.
type Registry struct {
	mu      sync.Mutex
	dwell   time.Duration
	sweep   time.Duration
	entries map[int64]*entry
	remove  func(orderID int64)
	closed  bool
}

// New builds a registry calling remove exactly once when an order's
// dwell expires.
func New(remove func(orderID int64)) *Registry {
	return NewWithDurations(remove, Dwell, SweepEvery)
}

// NewWithDurations is used by tests to shorten the dwell and sweep.
func NewWithDurations(remove func(orderID int64), dwell, sweep time.Duration) *Registry {
	return &Registry{
		dwell:   dwell,
		sweep:   sweep,
		entries: make(map[int64]*entry),
		remove:  remove,
	}
}

// Register arms removal of the given order after the dwell. A second
// registration for the same id is a no-op: DELIVERED is routinely
// observed twice, once via pull and once via push.
func (r *Registry) Register(orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if _, ok := r.entries[orderID]; ok {
		return
	}
	now := time.Now()
	r.entries[orderID] = &entry{
		start: now,
		end:   now.Add(r.dwell),
		timer: time.AfterFunc(r.dwell, func() { r.expire(orderID) }),
	}
}

// Cancel drops the entry without removing the order; used when the
// order disappears from the store for another reason.
func (r *Registry) Cancel(orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[orderID]; ok {
		e.timer.Stop()
		delete(r.entries, orderID)
	}
}

// Tracked reports whether a removal is scheduled for the order.
func (r *Registry) Tracked(orderID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[orderID]
	return ok
}

// Remaining returns the time left before removal, for UI countdowns.
func (r *Registry) Remaining(orderID int64) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[orderID]
	if !ok {
		return 0, false
	}
	left := time.Until(e.end)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Run sweeps on the refresh interval until ctx is cancelled. The sweep
// removes entries whose deadline already passed, covering one-shot
// callbacks delayed by the runtime; it stops the pending timer first
// so the removal fires exactly once.
func (r *Registry) Run(ctx context.Context) {
	t := time.NewTicker(r.sweep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.sweepExpired()
		}
	}
}

// Close cancels every pending timer. Safe to call more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, e := range r.entries {
		e.timer.Stop()
		delete(r.entries, id)
	}
}

// expire is the one-shot path. The entry may already be gone if the
// sweep or a Cancel won the race; in that case nothing is removed.
func (r *Registry) expire(orderID int64) {
	r.mu.Lock()
	e, ok := r.entries[orderID]
	if ok {
		e.timer.Stop()
		delete(r.entries, orderID)
	}
	r.mu.Unlock()
	if ok {
		r.remove(orderID)
	}
}

func (r *Registry) sweepExpired() {
	now := time.Now()
	r.mu.Lock()
	var due []int64
	for id, e := range r.entries {
		if !now.Before(e.end) {
			e.timer.Stop()
			delete(r.entries, id)
			due = append(due, id)
		}
	}
	r.mu.Unlock()
	for _, id := range due {
		r.remove(id)
	}
}
