package testutil

import (
	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/dbg/scripted"
)

// Normal builds a normal-channel chunk.
func Normal(text string) core.OutputChunk {
	return core.OutputChunk{Kind: core.ChannelNormal, Text: text}
}

// Error builds an error-channel chunk.
func Error(text string) core.OutputChunk {
	return core.OutputChunk{Kind: core.ChannelError, Text: text}
}

// Warning builds a warning-channel chunk.
func Warning(text string) core.OutputChunk {
	return core.OutputChunk{Kind: core.ChannelWarning, Text: text}
}

// SymbolTrace builds a symbol-trace chunk.
func SymbolTrace(text string) core.OutputChunk {
	return core.OutputChunk{Kind: core.ChannelSymbolTrace, Text: text}
}

// Prompt builds a prompt-channel chunk.
func Prompt(text string) core.OutputChunk {
	return core.OutputChunk{Kind: core.ChannelPrompt, Text: text}
}

// ScriptBuilder provides a fluent helper for constructing scripted responses.
// Example:
//
//	resp := NewScriptBuilder().Normal("hello\n").Warning("careful\n").Build()
//
// Chain only the parts you need.
type ScriptBuilder struct {
	chunks []core.OutputChunk
	err    error
}

// NewScriptBuilder creates an empty builder.
func NewScriptBuilder() *ScriptBuilder { return &ScriptBuilder{} }

// Normal appends a normal-channel chunk (chainable).
func (b *ScriptBuilder) Normal(text string) *ScriptBuilder {
	b.chunks = append(b.chunks, Normal(text))
	return b
}

// Error appends an error-channel chunk (chainable).
func (b *ScriptBuilder) Error(text string) *ScriptBuilder {
	b.chunks = append(b.chunks, Error(text))
	return b
}

// Warning appends a warning-channel chunk (chainable).
func (b *ScriptBuilder) Warning(text string) *ScriptBuilder {
	b.chunks = append(b.chunks, Warning(text))
	return b
}

// Prompt appends a prompt-channel chunk (chainable).
func (b *ScriptBuilder) Prompt(text string) *ScriptBuilder {
	b.chunks = append(b.chunks, Prompt(text))
	return b
}

// Fail makes Execute return err after emitting the chunks (chainable).
func (b *ScriptBuilder) Fail(err error) *ScriptBuilder {
	b.err = err
	return b
}

// Build assembles the scripted response.
func (b *ScriptBuilder) Build() scripted.Response {
	return scripted.Response{Chunks: b.chunks, Err: b.err}
}
