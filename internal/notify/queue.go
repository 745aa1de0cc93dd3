// Package notify implements the transient alert queue shown one entry
// at a time in a viewer.
package notify

import (
	"sync"
	"time"

	"qrmenu-sync/internal/domain"
)

// Item is a queued user-facing alert.
type Item struct {
	ID       int64
	Message  string
	Severity domain.Severity
}

// Queue is an unbounded FIFO of alerts. The head is promoted to the
// displayed slot only when nothing is currently shown, held for the
// configured duration, then the queue advances. No deduplication is
// performed: two alerts with identical text are both shown in
// sequence. Dismissal is by id and may target any position.
type Queue struct {
	mu      sync.Mutex
	hold    time.Duration
	pending []Item
	current *Item
	timer   *time.Timer
	nextID  int64
	closed  bool
}

// New returns a queue holding each displayed alert for hold.
func New(hold time.Duration) *Queue {
	return &Queue{hold: hold}
}

// Enqueue appends an alert and returns its id. Ids are monotonically
// increasing per queue.
func (q *Queue) Enqueue(message string, severity domain.Severity) int64 {
	if severity == "" {
		severity = domain.SeverityInfo
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := q.nextID
	q.pending = append(q.pending, Item{ID: id, Message: message, Severity: severity})
	q.promoteLocked()
	return id
}

// EnqueueAlert enqueues a push-channel alert payload.
func (q *Queue) EnqueueAlert(a domain.Alert) int64 {
	return q.Enqueue(a.Message, a.Severity)
}

// Current returns the alert being displayed, if any.
func (q *Queue) Current() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return Item{}, false
	}
	return *q.current, true
}

// Pending reports how many alerts wait behind the displayed one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Dismiss removes the alert with the given id from wherever it sits.
// Dismissing the displayed alert advances to the next head
// immediately; the rest of the queue keeps its order.
func (q *Queue) Dismiss(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current != nil && q.current.ID == id {
		q.advanceLocked()
		return
	}
	for i := range q.pending {
		if q.pending[i].ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Close stops the hold timer. Further enqueues are accepted but no
// longer displayed; safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.current = nil
}

func (q *Queue) promoteLocked() {
	if q.closed || q.current != nil || len(q.pending) == 0 {
		return
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	q.current = &head
	q.timer = time.AfterFunc(q.hold, func() { q.expire(head.ID) })
}

// expire advances only if id is still displayed; a manual dismissal
// may already have moved the queue on.
func (q *Queue) expire(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil || q.current.ID != id {
		return
	}
	q.advanceLocked()
}

func (q *Queue) advanceLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.current = nil
	q.promoteLocked()
}
