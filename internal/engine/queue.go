package engine

import "sync"

// queue is an unbounded FIFO work queue. It must be unbounded because
// recursion pushes new generations from worker goroutines while the same
// workers drain it; a fixed-capacity channel could deadlock there.
// Insertion order is preserved, so descriptors from one scope stay in
// wordlist order.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Descriptor
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a descriptor. Returns false if the queue is already closed.
func (q *queue) push(d Descriptor) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, d)
	q.cond.Signal()
	return true
}

// pop blocks until a descriptor is available or the queue is closed.
// After close, remaining items are still drained; ok is false only once
// the queue is both closed and empty.
func (q *queue) pop() (d Descriptor, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Descriptor{}, false
	}
	d = q.items[0]
	q.items = q.items[1:]
	return d, true
}

// close wakes all blocked consumers. Idempotent. discard drops anything
// still queued, for prompt cancellation.
func (q *queue) close(discard bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	if discard {
		q.items = nil
	}
	q.cond.Broadcast()
}
