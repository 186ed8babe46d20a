package store

import "time"

// Retry pacing for pending pushes. Failures back off exponentially per
// note id so one unreachable note cannot hammer the hub, capped so a
// long outage never pushes the retry horizon out indefinitely.
const (
	retryBase = time.Second
	retryCap  = 5 * time.Minute
)

type pendingEntry struct {
	attempts int
	nextTry  time.Time
}

// PendingQueue tracks note ids whose local state has not yet been
// confirmed accepted by the hub. Membership only — there is no payload;
// the collection holds the current note state to push. Order is FIFO by
// first mark, best effort.
//
// Not safe for concurrent use on its own; the Collection's mutex guards
// it together with the note list.
type PendingQueue struct {
	order   []string
	entries map[string]*pendingEntry
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{entries: make(map[string]*pendingEntry)}
}

// Mark enqueues an id for push. A fresh local mutation resets any
// backoff in progress — the newest edit deserves a prompt attempt.
func (q *PendingQueue) Mark(id string) {
	if e, ok := q.entries[id]; ok {
		e.attempts = 0
		e.nextTry = time.Time{}
		return
	}
	q.entries[id] = &pendingEntry{}
	q.order = append(q.order, id)
}

// Clear removes an id after the hub confirms it.
func (q *PendingQueue) Clear(id string) {
	if _, ok := q.entries[id]; !ok {
		return
	}
	delete(q.entries, id)
	for i, v := range q.order {
		if v == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Contains reports queue membership.
func (q *PendingQueue) Contains(id string) bool {
	_, ok := q.entries[id]
	return ok
}

// Len returns the number of pending ids.
func (q *PendingQueue) Len() int {
	return len(q.entries)
}

// Due returns, in FIFO order, the ids whose backoff window has elapsed.
func (q *PendingQueue) Due(now time.Time) []string {
	var due []string
	for _, id := range q.order {
		if e := q.entries[id]; e != nil && !now.Before(e.nextTry) {
			due = append(due, id)
		}
	}
	return due
}

// Fail records a failed push attempt and schedules the next try.
func (q *PendingQueue) Fail(id string, now time.Time) {
	e, ok := q.entries[id]
	if !ok {
		return
	}
	e.nextTry = now.Add(backoffFor(e.attempts))
	e.attempts++
}

// Snapshot returns the pending ids in FIFO order regardless of backoff.
func (q *PendingQueue) Snapshot() []string {
	return append([]string(nil), q.order...)
}

// backoffFor returns base·2^attempts capped at retryCap.
func backoffFor(attempts int) time.Duration {
	backoff := retryBase
	for i := 0; i < attempts; i++ {
		backoff *= 2
		if backoff >= retryCap {
			return retryCap
		}
	}
	return backoff
}
