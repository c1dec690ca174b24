package pipeline

import (
	"context"
	"sync"

	"gonetsentry/internal/models"
)

// Queue is an unbounded FIFO between the capture callback and the
// dispatch loop. Enqueue never blocks; Dequeue blocks while empty.
type Queue struct {
	mu     sync.Mutex
	items  []models.Packet
	head   int
	closed bool
	ready  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		items: make([]models.Packet, 0, 1024),
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends pkt. It returns false once the queue has been closed.
func (q *Queue) Enqueue(pkt models.Packet) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, pkt)
	q.mu.Unlock()
	q.signal()
	return true
}

// Close stops accepting packets. Dequeue keeps returning what is already
// queued and reports false once the queue is drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Dequeue waits for the next packet. It returns false immediately when ctx
// is done, leaving queued packets unread, or when the queue is closed and
// empty.
func (q *Queue) Dequeue(ctx context.Context) (models.Packet, bool) {
	for {
		if ctx.Err() != nil {
			return models.Packet{}, false
		}
		q.mu.Lock()
		if q.head < len(q.items) {
			pkt := q.items[q.head]
			q.items[q.head] = models.Packet{}
			q.head++
			q.compact()
			q.mu.Unlock()
			return pkt, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return models.Packet{}, false
		}
		select {
		case <-ctx.Done():
			return models.Packet{}, false
		case <-q.ready:
		}
	}
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// compact must be called with mu held.
func (q *Queue) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head >= 1024 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}
