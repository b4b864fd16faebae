package cache

import "sync"

type recencyItem struct {
	key string
	seq uint64
}

// recencyQueue is a fixed-capacity ring of the most recently produced keys
type recencyQueue struct {
	mu    sync.Mutex
	items []recencyItem
	head  int
	size  int
}

func newRecencyQueue(capacity int) *recencyQueue {
	return &recencyQueue{items: make([]recencyItem, capacity)}
}

// push enqueues item and returns the displaced oldest item when full
func (q *recencyQueue) push(item recencyItem) (recencyItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size < len(q.items) {
		q.items[(q.head+q.size)%len(q.items)] = item
		q.size++
		return recencyItem{}, false
	}

	old := q.items[q.head]
	q.items[q.head] = item
	q.head = (q.head + 1) % len(q.items)
	return old, true
}

func (q *recencyQueue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.head, q.size = 0, 0
	clear(q.items)
}
