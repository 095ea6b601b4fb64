// Package scripted provides an in-memory core.Debugger whose responses are
// scripted per command. It is the default engine for tests and examples: it
// emits classified output chunks through the installed output callback exactly
// like a real engine, optionally from a separate goroutine to exercise the
// capture layer's cross-thread locking.
package scripted

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/dbgmesh/core"
)

// Response is the scripted outcome of one command: the output chunks emitted
// while it "runs" and the error Execute returns afterwards.
type Response struct {
	Chunks []core.OutputChunk
	Err    error
}

// Options configures a scripted Debugger.
type Options struct {
	// Async emits chunks from a separate goroutine, mimicking engines that
	// deliver output on an internal thread. Execute still waits for emission
	// to finish so tests stay deterministic.
	Async bool

	// Strict makes Execute fail on commands without a script. When false an
	// unknown command emits an error-channel diagnostic and succeeds, which
	// matches how real engines report unrecognized commands.
	Strict bool
}

// Debugger is a scripted engine. Safe for the strictly sequential use the
// affinity executor guarantees; Script and SetOutputFunc may be called
// concurrently with Execute.
type Debugger struct {
	mu      sync.Mutex
	out     core.OutputFunc
	scripts map[string]Response
	closed  bool

	async  bool
	strict bool
}

// New creates an empty scripted debugger.
func New(optFns ...func(o *Options)) *Debugger {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Debugger{
		scripts: make(map[string]Response),
		async:   opts.Async,
		strict:  opts.Strict,
	}
}

// WithAsync emits output from a separate goroutine.
func WithAsync() func(o *Options) {
	return func(o *Options) { o.Async = true }
}

// WithStrict fails Execute on unscripted commands.
func WithStrict() func(o *Options) {
	return func(o *Options) { o.Strict = true }
}

// Script registers the response for a command, replacing any previous one.
func (d *Debugger) Script(command string, resp Response) {
	d.mu.Lock()
	d.scripts[command] = resp
	d.mu.Unlock()
}

// ScriptText registers a command that prints text on the normal channel.
func (d *Debugger) ScriptText(command, text string) {
	d.Script(command, Response{
		Chunks: []core.OutputChunk{{Kind: core.ChannelNormal, Text: text}},
	})
}

// SetOutputFunc installs the single output consumer.
func (d *Debugger) SetOutputFunc(fn core.OutputFunc) {
	d.mu.Lock()
	d.out = fn
	d.mu.Unlock()
}

// Execute emits the scripted chunks for command and returns its scripted
// error. Not safe for concurrent calls, matching the real engine contract.
func (d *Debugger) Execute(ctx context.Context, command string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("scripted debugger closed")
	}
	resp, ok := d.scripts[command]
	d.mu.Unlock()

	if !ok {
		if d.strict {
			return fmt.Errorf("no script for command %q", command)
		}
		resp = Response{
			Chunks: []core.OutputChunk{{
				Kind: core.ChannelError,
				Text: fmt.Sprintf("Unrecognized command %q\n", command),
			}},
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if d.async {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.emitAll(resp.Chunks)
		}()
		wg.Wait()
	} else {
		d.emitAll(resp.Chunks)
	}

	return resp.Err
}

// Close marks the debugger closed; further Execute calls fail.
func (d *Debugger) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Emit delivers a chunk to the installed output consumer directly, outside of
// any command. Tests use it to produce orphan output.
func (d *Debugger) Emit(chunk core.OutputChunk) {
	d.mu.Lock()
	fn := d.out
	d.mu.Unlock()

	if fn != nil {
		fn(chunk)
	}
}

func (d *Debugger) emitAll(chunks []core.OutputChunk) {
	for _, c := range chunks {
		d.Emit(c)
	}
}
