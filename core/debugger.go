package core

import "context"

// OutputFunc receives classified output chunks from a debugger engine. The
// engine has a single global output channel: at most one OutputFunc is
// installed at a time, and chunks arrive in emission order. Implementations
// must tolerate being called from an engine-internal goroutine.
type OutputFunc func(chunk OutputChunk)

// Debugger abstracts the underlying debugging engine.
//
// Engines of this kind are not reentrant and have thread affinity: Execute must
// never be called concurrently. DbgMesh enforces this by funneling every call
// through the affinity executor's single worker; adapters only need to be
// correct for strictly sequential use.
//
// Execute issues one command and returns once the engine reports completion.
// Output produced by the command is delivered through the installed OutputFunc,
// zero or more chunks per command, not necessarily synchronously with
// Execute's own return.
type Debugger interface {
	// Execute runs a single engine command. A non-nil error means the engine
	// rejected or failed the command; output emitted before the failure has
	// already been delivered to the OutputFunc.
	Execute(ctx context.Context, command string) error

	// SetOutputFunc installs the single consumer for engine output. Passing
	// nil detaches the current consumer. Must be called before Execute.
	SetOutputFunc(fn OutputFunc)

	// Close releases engine resources. Execute must not be called afterwards.
	Close() error
}
