package game

import (
	"sync"

	"trio_table/internal/domain"
)

// moveQueue is a player's private bounded move-request queue. The player
// goroutine consumes it; producers are the player's generator or an
// external key press, and the dealer purges entries for slots it just
// cleared. Close wakes every blocked producer and consumer.
type moveQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []domain.SlotID
	capacity int
	closed   bool
}

func newMoveQueue(capacity int) *moveQueue {
	q := &moveQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Put appends a move request, blocking while the queue is full. It
// reports false once the queue is closed.
func (q *moveQueue) Put(slot domain.SlotID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return false
	}
	q.items = append(q.items, slot)
	q.notEmpty.Signal()
	return true
}

// Take removes the oldest move request, blocking while the queue is
// empty. It reports false once the queue is closed.
func (q *moveQueue) Take() (domain.SlotID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.closed {
		return 0, false
	}
	slot := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return slot, true
}

// Purge drops every pending request for the slot. The dealer calls this
// when it removes the slot's card, so a stale request is never acted on.
func (q *moveQueue) Purge(slot domain.SlotID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, item := range q.items {
		if item != slot {
			kept = append(kept, item)
		}
	}
	if len(kept) != len(q.items) {
		q.items = kept
		q.notFull.Broadcast()
	}
}

// Clear drops all pending requests.
func (q *moveQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
	q.notFull.Broadcast()
}

// Close marks the queue terminated and wakes all waiters.
func (q *moveQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *moveQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
