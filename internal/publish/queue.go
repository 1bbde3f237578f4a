package publish

import "sync"

// queue is an unbounded FIFO ring buffer. Enqueue never blocks; the ring
// doubles when full so publish events are never dropped between the state
// machines and the dispatcher.
type queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	count  int
	closed bool
}

func newQueue[T any](initialCapacity int) *queue[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	q := &queue[T]{items: make([]T, initialCapacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// enqueue appends an item. Returns false when the queue is closed.
func (q *queue[T]) enqueue(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if q.count == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.count)%len(q.items)] = item
	q.count++
	q.cond.Signal()
	return true
}

// dequeue blocks until an item is available or the queue is closed and
// drained. The second return is false only in the latter case.
func (q *queue[T]) dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.count == 0 {
		var zero T
		return zero, false
	}

	item := q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return item, true
}

// close stops accepting items. Pending items remain dequeueable.
func (q *queue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// len reports the number of queued items.
func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// grow doubles the ring, unwrapping the current contents.
func (q *queue[T]) grow() {
	bigger := make([]T, len(q.items)*2)
	for i := 0; i < q.count; i++ {
		bigger[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = bigger
	q.head = 0
}
