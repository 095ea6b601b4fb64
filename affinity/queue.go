package affinity

import (
	"context"
	"sync"
)

// workItem is one unit of deferred work. run executes the item on the worker;
// fail resolves its completion handle without running it (shutdown, poison).
// fail may be nil for fire-and-forget items.
type workItem struct {
	run  func(ctx context.Context)
	fail func(err error)
}

// workQueue is an unbounded, blocking, strictly FIFO queue with a single
// permanent consumer and many concurrent producers. It never reorders or
// drops items; after close the consumer still drains what remains.
type workQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*workItem
	closed bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends an item; it reports false once the queue is closed.
func (q *workQueue) push(it *workItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, it)
	q.cond.Signal()
	return true
}

// pop blocks until an item is available or the queue is closed and empty.
// The second return is false only in the closed-and-drained case.
func (q *workQueue) pop() (*workItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	it := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return it, true
}

// close stops intake and wakes the consumer so it can drain and exit.
func (q *workQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// drain removes and returns all queued items without running them.
func (q *workQueue) drain() []*workItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// len reports the number of queued items.
func (q *workQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
