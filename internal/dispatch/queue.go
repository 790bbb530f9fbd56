// Package dispatch provides a single-goroutine serial executor. State that
// observers read (the auth state, store access around transitions) is only
// mutated from tasks running on a Queue, so those tasks never race.
package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when a task is submitted after the queue stopped.
var ErrClosed = errors.New("dispatch queue closed")

type queueKey struct{}

// Queue runs submitted tasks one at a time, in submission order.
type Queue struct {
	tasks chan func(context.Context)
	done  chan struct{}

	closeOnce sync.Once
	startOnce sync.Once
}

// New creates a queue with room for buffer pending tasks. Run must be
// called (usually in its own goroutine) before tasks execute.
func New(buffer int) *Queue {
	return &Queue{
		tasks: make(chan func(context.Context), buffer),
		done:  make(chan struct{}),
	}
}

// Start creates a queue and runs it until ctx is cancelled.
func Start(ctx context.Context) *Queue {
	q := New(64)
	go func() { _ = q.Run(ctx) }()
	return q
}

// Run executes tasks until ctx is cancelled or Close is called. Only the
// first call runs the loop; later calls return immediately.
func (q *Queue) Run(ctx context.Context) error {
	started := false
	q.startOnce.Do(func() { started = true })
	if !started {
		return nil
	}
	defer q.Close()

	qctx := context.WithValue(ctx, queueKey{}, q)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case fn := <-q.tasks:
			fn(qctx)
		}
	}
}

// Close stops the loop. Pending tasks are dropped.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// OnQueue reports whether ctx belongs to a task running on q.
func (q *Queue) OnQueue(ctx context.Context) bool {
	v, _ := ctx.Value(queueKey{}).(*Queue)
	return v == q
}

// Do runs fn on the queue and waits for it to finish. Called from a task
// already running on q (detected through ctx), fn runs inline.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context)) error {
	if q.OnQueue(ctx) {
		fn(ctx)
		return nil
	}

	if q.closed() {
		return ErrClosed
	}

	finished := make(chan struct{})
	task := func(qctx context.Context) {
		defer close(finished)
		fn(qctx)
	}

	select {
	case q.tasks <- task:
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-q.done:
		// The loop may have picked the task up right before closing.
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Go submits fn without waiting for it.
func (q *Queue) Go(fn func(ctx context.Context)) error {
	if q.closed() {
		return ErrClosed
	}
	select {
	case q.tasks <- fn:
		return nil
	case <-q.done:
		return ErrClosed
	}
}
