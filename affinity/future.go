package affinity

import (
	"context"
	"sync"
)

// Void is the result type of untyped work items.
type Void = struct{}

// Future is the completion handle of a submitted work item. It is resolved
// exactly once, by the worker (or by the executor when work is rejected), with
// either a value or an error.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

func (f *Future[T]) fail(err error) {
	var zero T
	f.complete(zero, err)
}

// Done returns a channel closed when the work item has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the work item completes or ctx is done. Abandoning via ctx
// is cooperative: the work item, once dequeued, still runs to completion.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
		return f.val, f.err
	}
}
