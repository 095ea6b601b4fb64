// Package affinity implements the single-thread affinity executor at the heart
// of DbgMesh.
//
// Debugging engines are typically not reentrant and must be driven from one
// fixed thread. The Executor owns that thread: a dedicated worker goroutine,
// locked to its OS thread, consumes an unbounded strictly-FIFO queue of work
// items. Any number of caller goroutines submit work and receive futures; the
// worker runs one item at a time in submission order, so no two items ever
// overlap on the engine.
//
// # Marshaling
//
// Beyond Submit, two lower level primitives re-marshal code onto the worker:
//
//   - Post enqueues a fire-and-forget closure. Continuations of suspended
//     operations use it to resume on the worker without blocking anyone.
//   - Send enqueues a closure and blocks the caller until it has run. Calling
//     Send from code already on the worker would deadlock against the
//     single-consumer queue, so it is detected and rejected.
//
// Code running as part of a work item receives a context carrying the worker's
// affinity token; InWorker inspects it. Dispatch uses the token to run a
// closure inline when already on the worker and to Post it otherwise.
//
// # Shutdown and poisoning
//
// Close stops intake, drains the queue and joins the worker. Work item panics
// are recovered; by default they fail only the item's future and the loop
// continues. With PanicPoison the executor instead becomes poisoned: every
// queued and future work item fails with core.ErrPoisoned wrapping the cause,
// and the worker exits without restart. Both policies are deterministic and
// tested; pick one at construction time.
//
// Cancellation is cooperative: abandoning a Future via context does not stop
// the underlying work item, which still runs to completion on the worker.
package affinity
