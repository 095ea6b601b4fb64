package capture

import (
	"bytes"
	"sync"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/logging"
)

// Options configures a Mux.
type Options struct {
	// Logger receives discard diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Mux attaches to the engine's global output callback and routes classified
// text chunks to the currently active capture scope. The active-scope slot is
// a single-slot register: at most one scope listens at any instant.
type Mux struct {
	mu     sync.Mutex
	active *Scope

	pool   sync.Pool // *bytes.Buffer, cleared on return
	logger logging.Logger
}

// New creates a Mux. Install Dispatch as the debugger's output func:
//
//	dbg.SetOutputFunc(mux.Dispatch)
func New(optFns ...func(o *Options)) *Mux {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Mux{
		pool:   sync.Pool{New: func() any { return new(bytes.Buffer) }},
		logger: opts.Logger,
	}
}

// WithLogger sets the mux logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Begin installs a new scope as the sole active listener and returns it. The
// caller must Close the scope when done, releasing even on error paths
// (defer). Begin is intended to be called from the worker thread only; a
// second Begin while a scope is active returns core.ErrCaptureActive.
func (m *Mux) Begin() (*Scope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, core.ErrCaptureActive
	}

	s := &Scope{
		mux:  m,
		bufs: make(map[core.ChannelKind]*bytes.Buffer, len(core.Channels)),
	}
	m.active = s

	return s, nil
}

// Dispatch is the engine's global output callback. It routes the chunk to the
// active scope, or discards it when none is active. Safe to call from the
// worker thread or an engine-internal goroutine.
func (m *Mux) Dispatch(chunk core.OutputChunk) {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()

	if s == nil {
		m.logger.Debug("capture: discarding orphan output channel=%s bytes=%d", chunk.Kind, len(chunk.Text))
		return
	}

	s.append(chunk)
}

// release uninstalls s from the active slot if it is still installed.
func (m *Mux) release(s *Scope) {
	m.mu.Lock()
	if m.active == s {
		m.active = nil
	}
	m.mu.Unlock()
}

func (m *Mux) getBuffer() *bytes.Buffer {
	return m.pool.Get().(*bytes.Buffer)
}

func (m *Mux) putBuffer(b *bytes.Buffer) {
	b.Reset()
	m.pool.Put(b)
}
