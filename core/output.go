package core

import (
	"github.com/google/uuid"
)

// ChannelKind classifies a chunk of engine output. The set is closed: engines
// emit on exactly one of these channels per chunk.
type ChannelKind int

const (
	// ChannelNormal carries regular command output.
	ChannelNormal ChannelKind = iota
	// ChannelError carries error diagnostics.
	ChannelError
	// ChannelWarning carries non-fatal warnings.
	ChannelWarning
	// ChannelSymbolTrace carries symbol resolution traces.
	ChannelSymbolTrace
	// ChannelPrompt carries prompt text. Prompt text doubles as user-visible
	// echo, so the capture layer also folds it (un-escaped) into ChannelNormal.
	ChannelPrompt
)

// String returns the canonical channel name.
func (k ChannelKind) String() string {
	switch k {
	case ChannelNormal:
		return "normal"
	case ChannelError:
		return "error"
	case ChannelWarning:
		return "warning"
	case ChannelSymbolTrace:
		return "symbol-trace"
	case ChannelPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Channels lists all channel kinds in declaration order. Useful for iterating
// over captured buffers.
var Channels = []ChannelKind{
	ChannelNormal,
	ChannelError,
	ChannelWarning,
	ChannelSymbolTrace,
	ChannelPrompt,
}

// OutputChunk is a single classified piece of engine output, delivered in
// emission order through the engine's global output callback.
type OutputChunk struct {
	Kind ChannelKind
	Text string
}

// Output is the per-channel accumulated text of one command execution. After a
// capture scope closes its text is final; Output values are plain data and safe
// to copy.
type Output struct {
	Normal      string `json:"normal"`
	Error       string `json:"error,omitempty"`
	Warning     string `json:"warning,omitempty"`
	SymbolTrace string `json:"symbol_trace,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

// Channel returns the accumulated text for a channel kind.
func (o Output) Channel(kind ChannelKind) string {
	switch kind {
	case ChannelNormal:
		return o.Normal
	case ChannelError:
		return o.Error
	case ChannelWarning:
		return o.Warning
	case ChannelSymbolTrace:
		return o.SymbolTrace
	case ChannelPrompt:
		return o.Prompt
	default:
		return ""
	}
}

// Diagnostic returns a CommandError when the error or warning channel carried
// text, nil otherwise. Error/warning text is surfaced separately from normal
// output rather than interleaved into it.
func (o Output) Diagnostic() error {
	if o.Error == "" && o.Warning == "" {
		return nil
	}
	return &CommandError{ErrorText: o.Error, WarningText: o.Warning}
}

// NewID generates a new unique identifier for commands and records.
func NewID() string {
	return uuid.NewString()
}
