// Package dbgmesh provides a high-level façade over the core Engine and its
// supporting abstractions (affinity executor, output capture, history &
// logging) enabling safe, ordered, asynchronous access to a single-threaded
// debugging engine. Most applications interact with this package by:
//  1. Creating a DbgMesh via New() (optionally providing a config or a custom
//     Debugger implementation)
//  2. Running commands synchronously (Run), with live output (Stream) or
//     asynchronously (RunAsync)
//
// The façade delegates scheduling and capture to engine.Engine while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a real
// engine adapter and a structured logger.
package dbgmesh

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hupe1980/dbgmesh/affinity"
	"github.com/hupe1980/dbgmesh/config"
	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/dbg/pipe"
	"github.com/hupe1980/dbgmesh/dbg/scripted"
	"github.com/hupe1980/dbgmesh/engine"
	"github.com/hupe1980/dbgmesh/history"
	"github.com/hupe1980/dbgmesh/logging"
)

// Options configures the DbgMesh instance.
type Options struct {
	// Config selects and configures the engine adapter. Defaults to the
	// scripted engine.
	Config *config.Config

	// Debugger overrides Config-based adapter construction with a caller
	// provided engine.
	Debugger core.Debugger

	// History records the command transcript (defaults to in-memory).
	History core.HistoryStore

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// PanicPolicy is forwarded to the affinity executor.
	PanicPolicy affinity.PanicPolicy
}

// DbgMesh is the high-level façade aggregating the underlying engine and services.
type DbgMesh struct {
	opts   Options
	dbg    core.Debugger
	engine *engine.Engine
}

// New creates a new DbgMesh instance with optional overrides. Without a
// Debugger override the engine adapter is built from the config.
func New(optFns ...func(o *Options)) (*DbgMesh, error) {
	opts := Options{
		Config:  config.Default(),
		History: history.NewInMemoryStore(),
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	dbg := opts.Debugger
	if dbg == nil {
		var err error
		dbg, err = buildDebugger(opts.Config, opts.Logger)
		if err != nil {
			return nil, err
		}
	}

	eng := engine.New(dbg,
		engine.WithHistory(opts.History),
		engine.WithLogger(opts.Logger),
		engine.WithPanicPolicy(opts.PanicPolicy),
	)

	return &DbgMesh{opts: opts, dbg: dbg, engine: eng}, nil
}

// WithConfig provides the engine configuration.
func WithConfig(cfg *config.Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithDebugger provides a caller supplied engine adapter.
func WithDebugger(dbg core.Debugger) func(o *Options) {
	return func(o *Options) { o.Debugger = dbg }
}

// WithHistory overrides the transcript store.
func WithHistory(store core.HistoryStore) func(o *Options) {
	return func(o *Options) { o.History = store }
}

// WithLogger sets the logger used across all components.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Run executes a single engine command and returns its classified output.
func (m *DbgMesh) Run(ctx context.Context, command string) (string, core.Output, error) {
	return m.engine.Run(ctx, command)
}

// Stream executes a command, pushing normal-channel text to onText as it arrives.
func (m *DbgMesh) Stream(ctx context.Context, command string, onText func(text string)) (string, core.Output, error) {
	return m.engine.Stream(ctx, command, onText)
}

// RunAsync submits a command and returns immediately with its future.
func (m *DbgMesh) RunAsync(command string) (string, *affinity.Future[core.Output]) {
	return m.engine.RunAsync(command)
}

// Engine exposes the underlying engine for advanced composition (directives,
// object-model queries).
func (m *DbgMesh) Engine() *engine.Engine {
	return m.engine
}

// History returns the configured transcript store.
func (m *DbgMesh) History() core.HistoryStore {
	return m.engine.History()
}

// Close drains pending commands and shuts down the engine adapter.
func (m *DbgMesh) Close(ctx context.Context) error {
	return m.engine.Close(ctx)
}

// buildDebugger constructs the engine adapter selected by cfg. Dump file and
// symbol path are handed to pipe engines as command line arguments.
func buildDebugger(cfg *config.Config, logger logging.Logger) (core.Debugger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Engine {
	case config.EngineScripted:
		return scripted.New(), nil

	case config.EnginePipe:
		args := append([]string{}, cfg.Pipe.Args...)
		if cfg.Dump != "" {
			args = append(args, "-z", cfg.Dump)
		}
		if cfg.Symbols != "" {
			args = append(args, "-y", cfg.Symbols)
		}

		pipeOpts := []func(o *pipe.Options){
			pipe.WithArgs(args...),
			pipe.WithLogger(logger),
		}
		if cfg.Pipe.Prompt != "" {
			re, err := regexp.Compile(cfg.Pipe.Prompt)
			if err != nil {
				return nil, fmt.Errorf("invalid prompt pattern: %w", err)
			}
			pipeOpts = append(pipeOpts, pipe.WithPrompt(re))
		}

		return pipe.New(cfg.Pipe.Binary, pipeOpts...)

	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}
