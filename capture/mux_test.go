package capture

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbgmesh/core"
)

func dispatchNormal(m *Mux, text string) {
	m.Dispatch(core.OutputChunk{Kind: core.ChannelNormal, Text: text})
}

func TestScope_CapturesClassifiedOutput(t *testing.T) {
	m := New()

	s, err := m.Begin()
	require.NoError(t, err)

	m.Dispatch(core.OutputChunk{Kind: core.ChannelNormal, Text: "hello\n"})
	m.Dispatch(core.OutputChunk{Kind: core.ChannelError, Text: "bad handle\n"})
	m.Dispatch(core.OutputChunk{Kind: core.ChannelWarning, Text: "stale symbols\n"})
	m.Dispatch(core.OutputChunk{Kind: core.ChannelSymbolTrace, Text: "SYMSRV lookup\n"})

	assert.Equal(t, "hello\n", s.Channel(core.ChannelNormal))
	assert.Equal(t, "bad handle\n", s.Channel(core.ChannelError))
	assert.Equal(t, "stale symbols\n", s.Channel(core.ChannelWarning))
	assert.Equal(t, "SYMSRV lookup\n", s.Channel(core.ChannelSymbolTrace))

	s.Close()

	out := s.Output()
	assert.Equal(t, "hello\n", out.Normal)
	assert.Equal(t, "bad handle\n", out.Error)
}

func TestScope_OutputIsolation(t *testing.T) {
	m := New()

	a, err := m.Begin()
	require.NoError(t, err)
	dispatchNormal(m, "hello")
	a.Close()

	b, err := m.Begin()
	require.NoError(t, err)
	dispatchNormal(m, "world")
	b.Close()

	assert.Equal(t, "hello", a.Channel(core.ChannelNormal))
	assert.Equal(t, "world", b.Channel(core.ChannelNormal))
}

func TestPromptUnescaping(t *testing.T) {
	m := New()

	s, err := m.Begin()
	require.NoError(t, err)
	defer s.Close()

	m.Dispatch(core.OutputChunk{Kind: core.ChannelPrompt, Text: "a &lt;b&gt; c"})

	assert.Equal(t, "a <b> c", s.Channel(core.ChannelNormal), "prompt text folds into normal un-escaped")
	assert.Equal(t, "a &lt;b&gt; c", s.Channel(core.ChannelPrompt), "prompt channel keeps the raw text")
}

func TestOrphanOutputDiscarded(t *testing.T) {
	m := New()

	dispatchNormal(m, "nobody listening")

	s, err := m.Begin()
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, s.Channel(core.ChannelNormal))
}

func TestBufferReuse_NewScopeStartsEmpty(t *testing.T) {
	m := New()

	for i := 0; i < 5; i++ {
		s, err := m.Begin()
		require.NoError(t, err)

		for _, kind := range core.Channels {
			assert.Empty(t, s.Channel(kind), "scope %d channel %s not empty", i, kind)
		}

		m.Dispatch(core.OutputChunk{Kind: core.ChannelNormal, Text: fmt.Sprintf("run-%d", i)})
		m.Dispatch(core.OutputChunk{Kind: core.ChannelError, Text: fmt.Sprintf("err-%d", i)})
		assert.Equal(t, fmt.Sprintf("run-%d", i), s.Channel(core.ChannelNormal))

		s.Close()
	}
}

func TestBegin_WhileActiveRejected(t *testing.T) {
	m := New()

	s, err := m.Begin()
	require.NoError(t, err)

	_, err = m.Begin()
	assert.ErrorIs(t, err, core.ErrCaptureActive)

	s.Close()

	_, err = m.Begin()
	assert.NoError(t, err)
}

func TestOnOutput_StreamsNormalText(t *testing.T) {
	m := New()

	s, err := m.Begin()
	require.NoError(t, err)
	defer s.Close()

	var got []string
	s.OnOutput(func(text string) { got = append(got, text) })

	dispatchNormal(m, "first ")
	dispatchNormal(m, "second")
	m.Dispatch(core.OutputChunk{Kind: core.ChannelError, Text: "not streamed"})
	m.Dispatch(core.OutputChunk{Kind: core.ChannelPrompt, Text: "&lt;echo&gt;"})

	assert.Equal(t, []string{"first ", "second", "<echo>"}, got)
}

func TestOnOutput_HandlerMayReadBack(t *testing.T) {
	m := New()

	s, err := m.Begin()
	require.NoError(t, err)
	defer s.Close()

	var seen string
	s.OnOutput(func(text string) {
		seen = s.Channel(core.ChannelNormal)
	})

	dispatchNormal(m, "progress")
	assert.Equal(t, "progress", seen)
}

func TestClose_FinalizesText(t *testing.T) {
	m := New()

	s, err := m.Begin()
	require.NoError(t, err)
	dispatchNormal(m, "final")
	s.Close()
	s.Close() // idempotent

	// Late chunks must not mutate a released scope.
	dispatchNormal(m, "late")
	assert.Equal(t, "final", s.Channel(core.ChannelNormal))
}

func TestDispatch_ConcurrentWithClose(t *testing.T) {
	m := New()

	for i := 0; i < 50; i++ {
		s, err := m.Begin()
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				dispatchNormal(m, "x")
			}
		}()

		s.Close()
		wg.Wait()

		// Whatever arrived before the close is final; nothing panics and the
		// next scope starts clean.
		next, err := m.Begin()
		require.NoError(t, err)
		assert.Empty(t, next.Channel(core.ChannelNormal))
		next.Close()
	}
}
