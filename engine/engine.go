package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/dbgmesh/affinity"
	"github.com/hupe1980/dbgmesh/capture"
	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/logging"
)

// Options configures an Engine instance.
type Options struct {
	// History records a transcript of executed commands. Nil disables
	// recording.
	History core.HistoryStore

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOpLogger.
	Logger logging.Logger

	// PanicPolicy is forwarded to the affinity executor.
	PanicPolicy affinity.PanicPolicy
}

// Engine serializes access to one debugger and correlates each command with
// its captured output.
//
// Construction wires three parts together: a fresh affinity executor (the
// engine's dedicated worker thread), a capture mux installed as the debugger's
// output callback, and the debugger itself. All public methods are safe for
// concurrent use; underlying engine calls execute strictly one at a time in
// submission order.
type Engine struct {
	dbg     core.Debugger
	exec    *affinity.Executor
	mux     *capture.Mux
	history core.HistoryStore
	logger  logging.Logger
}

// New creates an Engine driving dbg and starts its worker thread. The Engine
// installs itself as the debugger's single output consumer.
func New(dbg core.Debugger, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	mux := capture.New(capture.WithLogger(opts.Logger))
	dbg.SetOutputFunc(mux.Dispatch)

	return &Engine{
		dbg: dbg,
		exec: affinity.New(
			affinity.WithLogger(opts.Logger),
			affinity.WithPanicPolicy(opts.PanicPolicy),
		),
		mux:     mux,
		history: opts.History,
		logger:  opts.Logger,
	}
}

// WithHistory enables transcript recording into store.
func WithHistory(store core.HistoryStore) func(o *Options) {
	return func(o *Options) { o.History = store }
}

// WithLogger sets the logger used by the engine, executor and capture layer.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithPanicPolicy sets the executor's panic handling policy.
func WithPanicPolicy(p affinity.PanicPolicy) func(o *Options) {
	return func(o *Options) { o.PanicPolicy = p }
}

// RunAsync submits command for execution and returns immediately with the
// command ID and a future resolved once the command has run on the worker
// thread. The future carries the classified output together with any
// execution error; text captured before a failure is preserved.
func (e *Engine) RunAsync(command string) (string, *affinity.Future[core.Output]) {
	return e.submit(command, nil)
}

// Run executes command and blocks until completion or ctx is done. Giving up
// via ctx is cooperative: the command, once dequeued, still runs to
// completion on the worker.
func (e *Engine) Run(ctx context.Context, command string) (string, core.Output, error) {
	commandID, fut := e.submit(command, nil)
	out, err := fut.Wait(ctx)
	return commandID, out, err
}

// Stream executes command like Run while pushing each chunk of normal-channel
// text to onText as it arrives, so a live display can render partial output
// before the command completes. onText is called synchronously from the
// output path and must return quickly.
func (e *Engine) Stream(ctx context.Context, command string, onText func(text string)) (string, core.Output, error) {
	commandID, fut := e.submit(command, onText)
	out, err := fut.Wait(ctx)
	return commandID, out, err
}

// Executor exposes the underlying affinity executor for callers that need to
// marshal their own work onto the engine thread.
func (e *Engine) Executor() *affinity.Executor {
	return e.exec
}

// History returns the configured transcript store, or nil.
func (e *Engine) History() core.HistoryStore {
	return e.history
}

// Close shuts down cooperatively: stop accepting commands, drain queued work,
// join the worker thread, then close the debugger. ctx bounds the drain.
func (e *Engine) Close(ctx context.Context) error {
	errExec := e.exec.Close(ctx)
	errDbg := e.dbg.Close()
	return errors.Join(errExec, errDbg)
}

func (e *Engine) submit(command string, onText func(string)) (string, *affinity.Future[core.Output]) {
	commandID := core.NewID()
	started := time.Now()

	e.logger.Debug("engine queued command command_id=%s command=%q", commandID, command)

	fut := affinity.Submit(e.exec, func(wctx context.Context) (core.Output, error) {
		scope, err := e.mux.Begin()
		if err != nil {
			return core.Output{}, fmt.Errorf("failed to begin capture: %w", err)
		}
		// Release even when the engine call fails or panics; Close is
		// idempotent so the explicit finalize below is fine.
		defer scope.Close()

		if onText != nil {
			scope.OnOutput(onText)
		}

		execErr := e.dbg.Execute(wctx, command)

		scope.Close()
		out := scope.Output()

		if execErr != nil {
			execErr = fmt.Errorf("engine command failed: %w", execErr)
		}
		e.record(command, out, execErr, started)
		e.logger.Debug("engine completed command command_id=%s duration=%s success=%t",
			commandID, time.Since(started), execErr == nil)

		return out, execErr
	})

	return commandID, fut
}

// record appends a transcript record when a history store is configured.
// Recording failures must not fail the command itself.
func (e *Engine) record(command string, out core.Output, execErr error, started time.Time) {
	if e.history == nil {
		return
	}
	if err := e.history.Append(core.NewRecord(command, out, execErr, started)); err != nil {
		e.logger.Warn("engine failed to append history record: %v", err)
	}
}
