package capture

import (
	"bytes"
	"strings"
	"sync"

	"github.com/hupe1980/dbgmesh/core"
)

// promptUnescaper reverses the markup entities engines embed in prompt text
// before it is folded into the normal channel.
var promptUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">")

// Scope accumulates the engine output of one logical invocation, classified by
// channel kind. It is the active listener from Begin until Close. After Close
// its accumulated text is immutable; late chunks are dropped.
type Scope struct {
	mux *Mux

	mu       sync.Mutex
	bufs     map[core.ChannelKind]*bytes.Buffer
	onOutput func(text string)
	closed   bool
	final    core.Output
}

// OnOutput installs a push notification fired synchronously once per chunk of
// normal-channel text, letting a caller stream partial output to a live
// display while the operation is still running. Prompt text folded into the
// normal channel is streamed too, since it doubles as user-visible echo.
func (s *Scope) OnOutput(fn func(text string)) {
	s.mu.Lock()
	s.onOutput = fn
	s.mu.Unlock()
}

// Channel returns the text accumulated so far for one channel kind, or the
// final text once the scope is closed.
func (s *Scope) Channel(kind core.ChannelKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.final.Channel(kind)
	}
	if b, ok := s.bufs[kind]; ok {
		return b.String()
	}
	return ""
}

// Output returns a snapshot of all channels. After Close it is the final,
// immutable result.
func (s *Scope) Output() core.Output {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.final
	}
	return s.snapshotLocked()
}

// Close uninstalls the scope as active listener, finalizes its text and
// returns its buffers to the pool. Idempotent; safe to defer.
func (s *Scope) Close() {
	s.mux.release(s)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.final = s.snapshotLocked()
	for kind, b := range s.bufs {
		s.mux.putBuffer(b)
		delete(s.bufs, kind)
	}
}

// append routes one classified chunk into the scope's buffers. Called from
// Mux.Dispatch, possibly on an engine-internal goroutine. Chunks racing a
// concurrent Close are dropped: the scope's text is already final.
func (s *Scope) append(chunk core.OutputChunk) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	var streamed string
	switch chunk.Kind {
	case core.ChannelPrompt:
		s.bufLocked(core.ChannelPrompt).WriteString(chunk.Text)
		streamed = promptUnescaper.Replace(chunk.Text)
		s.bufLocked(core.ChannelNormal).WriteString(streamed)
	case core.ChannelNormal:
		s.bufLocked(core.ChannelNormal).WriteString(chunk.Text)
		streamed = chunk.Text
	default:
		s.bufLocked(chunk.Kind).WriteString(chunk.Text)
	}
	fn := s.onOutput

	// Fire the notification outside the lock so the handler may read back
	// Channel without deadlocking.
	s.mu.Unlock()

	if fn != nil && streamed != "" {
		fn(streamed)
	}
}

// bufLocked returns the buffer for kind, checking one out of the pool on
// first use. Caller holds s.mu.
func (s *Scope) bufLocked(kind core.ChannelKind) *bytes.Buffer {
	b, ok := s.bufs[kind]
	if !ok {
		b = s.mux.getBuffer()
		s.bufs[kind] = b
	}
	return b
}

func (s *Scope) snapshotLocked() core.Output {
	var out core.Output
	for kind, b := range s.bufs {
		switch kind {
		case core.ChannelNormal:
			out.Normal = b.String()
		case core.ChannelError:
			out.Error = b.String()
		case core.ChannelWarning:
			out.Warning = b.String()
		case core.ChannelSymbolTrace:
			out.SymbolTrace = b.String()
		case core.ChannelPrompt:
			out.Prompt = b.String()
		}
	}
	return out
}
