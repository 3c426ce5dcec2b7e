package bus

import (
	"sync/atomic"

	"github.com/yanun0323/errors"
)

var (
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue closed")
)

// Queue is a bounded, non-blocking FIFO connecting the engine to the
// rest of the stack. Absence of a message is not an error: TryDequeue
// reports it through its second return value.
type Queue[T any] struct {
	ch     chan T
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryEnqueue appends a message without blocking.
func (q *Queue[T]) TryEnqueue(msg T) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// TryDequeue pops the oldest message without blocking. The second
// return value is false when the queue is currently empty.
func (q *Queue[T]) TryDequeue() (T, bool, error) {
	var zero T
	select {
	case msg, ok := <-q.ch:
		if !ok {
			return zero, false, ErrQueueClosed
		}
		return msg, true, nil
	default:
		return zero, false, nil
	}
}

// Len reports the number of buffered messages.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new messages.
func (q *Queue[T]) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}
