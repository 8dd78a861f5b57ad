package viewmodel

import (
	"context"
	"errors"
)

// Dispatcher hands work back to the control goroutine. Post must be safe to
// call from any goroutine, and the posted function must run on the control
// goroutine, never on the caller's.
type Dispatcher interface {
	Post(fn func())
}

// ErrQueueClosed is returned by Next once the queue is closed and drained.
var ErrQueueClosed = errors.New("dispatch queue closed")

// Queue is a channel-backed Dispatcher for callers that own their loop, such
// as the robot commands and tests. Posted functions run when the owning
// goroutine calls Next or Drain.
type Queue struct {
	fns  chan func()
	done chan struct{}
}

// NewQueue creates a queue with the given buffer. Post blocks when the
// buffer is full until the owner drains it.
func NewQueue(buffer int) *Queue {
	if buffer < 0 {
		buffer = 0
	}
	return &Queue{
		fns:  make(chan func(), buffer),
		done: make(chan struct{}),
	}
}

// Post implements Dispatcher. Posting to a closed queue drops fn.
func (q *Queue) Post(fn func()) {
	select {
	case <-q.done:
	case q.fns <- fn:
	}
}

// Next blocks until one posted function is available, runs it on the calling
// goroutine, and returns. It returns ctx.Err() if ctx ends first.
func (q *Queue) Next(ctx context.Context) error {
	select {
	case fn := <-q.fns:
		fn()
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs every function already posted without blocking and reports how
// many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.fns:
			fn()
			n++
		default:
			return n
		}
	}
}

// Close stops accepting work. Pending posts are released and dropped.
func (q *Queue) Close() {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}
