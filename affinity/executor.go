package affinity

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/logging"
)

// PanicPolicy selects how the worker loop reacts to a panic escaping a work item.
type PanicPolicy int

const (
	// PanicFail recovers the panic, fails only the panicking item's future and
	// keeps consuming the queue. This is the default.
	PanicFail PanicPolicy = iota

	// PanicPoison recovers the panic, fails the panicking item, then poisons
	// the executor: all queued and future work fails with core.ErrPoisoned and
	// the worker exits. The worker is never restarted.
	PanicPoison
)

// Token identifies the worker's logical execution context. Work item contexts
// carry the executor's token; comparing tokens replaces thread-local state.
type Token struct{ _ byte }

type tokenKey struct{}

// Options configures an Executor.
type Options struct {
	// Logger receives executor lifecycle and discard diagnostics.
	// Defaults to NoOpLogger.
	Logger logging.Logger

	// PanicPolicy selects the failure policy for escaping panics.
	PanicPolicy PanicPolicy
}

// Executor serializes all work onto one dedicated worker goroutine locked to
// its OS thread. Producers on any goroutine submit work items; the worker runs
// them one at a time in exact submission order.
type Executor struct {
	queue  *workQueue
	logger logging.Logger
	policy PanicPolicy

	token     *Token
	workerCtx context.Context

	mu       sync.Mutex
	closed   bool
	poisoned error // non-nil once poisoned; wraps the cause

	done chan struct{} // closed when the worker loop has exited
}

// New creates an Executor and starts its worker thread.
func New(optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		PanicPolicy: PanicFail,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Executor{
		queue:  newWorkQueue(),
		logger: opts.Logger,
		policy: opts.PanicPolicy,
		token:  new(Token),
		done:   make(chan struct{}),
	}
	e.workerCtx = context.WithValue(context.Background(), tokenKey{}, e.token)

	go e.run()

	return e
}

// WithLogger sets the executor logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithPanicPolicy sets the panic handling policy.
func WithPanicPolicy(p PanicPolicy) func(o *Options) {
	return func(o *Options) { o.PanicPolicy = p }
}

// InWorker reports whether ctx belongs to this executor's worker, i.e. the
// caller is running as part of a work item. Code that is already on the worker
// must not block on its own queue.
func (e *Executor) InWorker(ctx context.Context) bool {
	t, _ := ctx.Value(tokenKey{}).(*Token)
	return t == e.token
}

// Submit enqueues fn and returns a future resolved with fn's error once it has
// run on the worker. Enqueue itself never fails: after Close or poisoning the
// returned future is already resolved with core.ErrExecutorClosed or
// core.ErrPoisoned.
func (e *Executor) Submit(fn func(ctx context.Context) error) *Future[Void] {
	return Submit(e, func(ctx context.Context) (Void, error) {
		return Void{}, fn(ctx)
	})
}

// Submit enqueues fn on e and returns a typed future carrying fn's result.
func Submit[T any](e *Executor, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	it := &workItem{
		run: func(ctx context.Context) {
			f.complete(fn(ctx))
		},
		fail: f.fail,
	}
	if err := e.enqueue(it); err != nil {
		f.fail(err)
	}
	return f
}

// Post enqueues a fire-and-forget closure, typically the continuation of a
// suspended operation that must resume on the worker. It never blocks. Posts
// arriving after shutdown or poisoning are dropped with a warning.
func (e *Executor) Post(fn func(ctx context.Context)) {
	it := &workItem{run: fn}
	if err := e.enqueue(it); err != nil {
		e.logger.Warn("affinity: dropping posted work: %v", err)
	}
}

// Send enqueues fn and blocks until it has run on the worker. ctx bounds the
// wait only; fn still runs even if the caller gives up. Calling Send from code
// already on the worker deadlocks the single-consumer FIFO, so it is rejected
// with core.ErrSendFromWorker.
func (e *Executor) Send(ctx context.Context, fn func(ctx context.Context)) error {
	if e.InWorker(ctx) {
		return core.ErrSendFromWorker
	}
	f := e.Submit(func(wctx context.Context) error {
		fn(wctx)
		return nil
	})
	_, err := f.Wait(ctx)
	return err
}

// Dispatch runs fn inline when ctx is already on the worker, otherwise posts
// it. This is the "run now if on this logical thread, else enqueue" rule used
// by cooperative operations.
func (e *Executor) Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	if e.InWorker(ctx) {
		fn(ctx)
		return
	}
	e.Post(fn)
}

// Pending reports the number of queued, not yet dequeued work items.
func (e *Executor) Pending() int {
	return e.queue.len()
}

// Close stops accepting new work, lets the queue drain, then joins the worker.
// ctx bounds how long Close waits for the drain. Close is idempotent.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.queue.close()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for worker drain: %w", ctx.Err())
	}
}

func (e *Executor) enqueue(it *workItem) error {
	e.mu.Lock()
	if e.poisoned != nil {
		err := e.poisoned
		e.mu.Unlock()
		return err
	}
	closed := e.closed
	e.mu.Unlock()

	if closed || !e.queue.push(it) {
		return core.ErrExecutorClosed
	}
	return nil
}

// run is the worker loop. It locks the goroutine to its OS thread for the
// lifetime of the executor, since the engine driven through it has thread
// affinity.
func (e *Executor) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.done)

	for {
		it, ok := e.queue.pop()
		if !ok {
			e.logger.Debug("affinity: worker exiting, queue closed and drained")
			return
		}
		if poisoned := e.invoke(it); poisoned {
			return
		}
	}
}

// invoke runs one work item with panic recovery. It reports true when the
// recovery poisoned the executor and the loop must exit.
func (e *Executor) invoke(it *workItem) (poisoned bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("work item panic: %v", r)
		if it.fail != nil {
			it.fail(err)
		}
		if e.policy == PanicPoison {
			e.poison(err)
			poisoned = true
			return
		}
		e.logger.Error("affinity: recovered work item panic: %v", r)
	}()

	it.run(e.workerCtx)
	return false
}

// poison marks the executor unusable and fails every queued item. Subsequent
// submissions fail immediately with the same wrapped cause.
func (e *Executor) poison(cause error) {
	err := fmt.Errorf("%w: %w", core.ErrPoisoned, cause)

	e.mu.Lock()
	e.poisoned = err
	e.mu.Unlock()

	e.queue.close()
	for _, it := range e.queue.drain() {
		if it.fail != nil {
			it.fail(err)
		}
	}

	e.logger.Error("affinity: executor poisoned: %v", cause)
}
