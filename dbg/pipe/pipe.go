// Package pipe provides a core.Debugger adapter that drives an external
// debugger binary through its standard streams: commands go to stdin, stdout
// lines are classified as normal output (prompt-matching lines as prompt
// text) and stderr lines as error output. Command completion is detected by
// the reappearance of the prompt.
//
// The adapter only supports strictly sequential Execute calls, which is
// exactly what the affinity executor guarantees.
package pipe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/logging"
)

// DefaultPrompt matches the prompt line of cdb-style debuggers, e.g. "0:000>".
var DefaultPrompt = regexp.MustCompile(`^[0-9]+:[0-9]+.*> ?$`)

// Options configures a pipe Debugger.
type Options struct {
	// Args are passed to the debugger binary.
	Args []string

	// Prompt identifies prompt lines on stdout. Defaults to DefaultPrompt.
	Prompt *regexp.Regexp

	// StartTimeout bounds the wait for the initial prompt after spawning.
	StartTimeout time.Duration

	// Logger receives adapter diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Debugger drives an external debugger process over pipes.
type Debugger struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	prompt *regexp.Regexp
	logger logging.Logger

	mu     sync.Mutex
	out    core.OutputFunc
	closed bool

	// promptCh receives one signal per prompt line; buffered so the reader
	// never blocks on a slow Execute.
	promptCh   chan struct{}
	readDone   chan struct{}
	stderrDone chan struct{}
}

// New spawns the debugger binary and waits for its initial prompt.
func New(binary string, optFns ...func(o *Options)) (*Debugger, error) {
	opts := Options{
		Prompt:       DefaultPrompt,
		StartTimeout: 30 * time.Second,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cmd := exec.Command(binary, opts.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start debugger %q: %w", binary, err)
	}

	d := &Debugger{
		cmd:      cmd,
		stdin:    stdin,
		prompt:   opts.Prompt,
		logger:   opts.Logger,
		promptCh:   make(chan struct{}, 1),
		readDone:   make(chan struct{}),
		stderrDone: make(chan struct{}),
	}

	go d.readStdout(stdout)
	go d.readStderr(stderr)

	select {
	case <-d.promptCh:
	case <-time.After(opts.StartTimeout):
		_ = cmd.Process.Kill()
		<-d.readDone
		<-d.stderrDone
		_ = cmd.Wait()
		return nil, fmt.Errorf("debugger %q did not produce a prompt within %s", binary, opts.StartTimeout)
	}

	return d, nil
}

// WithArgs passes arguments to the debugger binary.
func WithArgs(args ...string) func(o *Options) {
	return func(o *Options) { o.Args = args }
}

// WithPrompt overrides the prompt pattern.
func WithPrompt(re *regexp.Regexp) func(o *Options) {
	return func(o *Options) { o.Prompt = re }
}

// WithLogger sets the adapter logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// SetOutputFunc installs the single output consumer.
func (d *Debugger) SetOutputFunc(fn core.OutputFunc) {
	d.mu.Lock()
	d.out = fn
	d.mu.Unlock()
}

// Execute writes command to the debugger's stdin and waits for the prompt to
// reappear. Output produced in between is delivered through the output func
// by the reader goroutines.
func (d *Debugger) Execute(ctx context.Context, command string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("pipe debugger closed")
	}
	d.mu.Unlock()

	// Clear a stale prompt signal left over from a previous command.
	select {
	case <-d.promptCh:
	default:
	}

	if _, err := io.WriteString(d.stdin, command+"\n"); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}

	select {
	case <-d.promptCh:
		return nil
	case <-d.readDone:
		return errors.New("debugger process exited")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session by closing stdin and waits for the process to exit.
// Both reader goroutines must reach EOF before cmd.Wait: Wait closes the pipe
// read ends, and output the process emits on shutdown would be lost.
func (d *Debugger) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	errClose := d.stdin.Close()
	<-d.readDone
	<-d.stderrDone
	errWait := d.cmd.Wait()
	return errors.Join(errClose, errWait)
}

func (d *Debugger) readStdout(r io.Reader) {
	defer close(d.readDone)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if d.prompt.MatchString(line) {
			d.emit(core.OutputChunk{Kind: core.ChannelPrompt, Text: line})
			select {
			case d.promptCh <- struct{}{}:
			default:
			}
			continue
		}
		d.emit(core.OutputChunk{Kind: core.ChannelNormal, Text: line + "\n"})
	}
	if err := sc.Err(); err != nil {
		d.logger.Warn("pipe: stdout read failed: %v", err)
	}
}

func (d *Debugger) readStderr(r io.Reader) {
	defer close(d.stderrDone)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.emit(core.OutputChunk{Kind: core.ChannelError, Text: sc.Text() + "\n"})
	}
}

func (d *Debugger) emit(chunk core.OutputChunk) {
	d.mu.Lock()
	fn := d.out
	d.mu.Unlock()

	if fn != nil {
		fn(chunk)
	}
}
