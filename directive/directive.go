// Package directive implements the textual wiring on top of the engine: a
// submission (one or many lines) is split into commands, lines starting with
// a dot are treated as directives with registered handlers, and everything
// else passes through to the engine unchanged.
package directive

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/engine"
	"github.com/hupe1980/dbgmesh/logging"
)

// Command is one parsed line of a submission.
type Command struct {
	// Raw is the trimmed source line.
	Raw string
	// Name is the directive name without the leading dot; empty for plain
	// engine commands.
	Name string
	// Args are the directive arguments.
	Args []string
}

// IsDirective reports whether the line was a dot-directive.
func (c Command) IsDirective() bool {
	return c.Name != ""
}

// Parse splits a submission into commands, one per non-empty line. Lines
// starting with "." become directives; their first token (sans dot) is the
// name and the rest are arguments.
func Parse(source string) []Command {
	var cmds []Command
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			fields := strings.Fields(line)
			cmds = append(cmds, Command{
				Raw:  line,
				Name: strings.TrimPrefix(fields[0], "."),
				Args: fields[1:],
			})
			continue
		}
		cmds = append(cmds, Command{Raw: line})
	}
	return cmds
}

// Handler executes one directive. The returned output is reported alongside
// engine command outputs.
type Handler func(ctx context.Context, args []string) (core.Output, error)

// Result pairs one executed command with its outcome.
type Result struct {
	Command Command
	Output  core.Output
	Err     error
}

// Options configures a Dispatcher.
type Options struct {
	// Logger receives per-line execution diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Dispatcher executes parsed submissions: registered handlers for directives,
// engine passthrough for everything else. Lines run strictly in order; the
// first hard error stops the submission.
type Dispatcher struct {
	engine   *engine.Engine
	handlers map[string]Handler
	logger   logging.Logger
}

// NewDispatcher creates a Dispatcher over eng.
func NewDispatcher(eng *engine.Engine, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		engine:   eng,
		handlers: make(map[string]Handler),
		logger:   opts.Logger,
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Register adds a handler for the named directive, replacing any previous one.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

// Execute parses source and runs its commands in order. Results for completed
// lines are always returned; a non-nil error means the submission stopped at
// the failing line. A directive without a handler fails the submission.
func (d *Dispatcher) Execute(ctx context.Context, source string) ([]Result, error) {
	var results []Result

	for _, cmd := range Parse(source) {
		res := Result{Command: cmd}

		switch {
		case cmd.IsDirective():
			h, ok := d.handlers[cmd.Name]
			if !ok {
				res.Err = fmt.Errorf("unknown directive %q", cmd.Name)
			} else {
				res.Output, res.Err = h(ctx, cmd.Args)
			}
		default:
			_, res.Output, res.Err = d.engine.Run(ctx, cmd.Raw)
		}

		results = append(results, res)
		d.logger.Debug("directive executed line=%q directive=%t success=%t", cmd.Raw, cmd.IsDirective(), res.Err == nil)

		if res.Err != nil {
			return results, fmt.Errorf("line %q failed: %w", cmd.Raw, res.Err)
		}
	}

	return results, nil
}
