package dbgmesh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbgmesh/config"
	"github.com/hupe1980/dbgmesh/dbg/scripted"
)

func closeMesh(t *testing.T, m *DbgMesh) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, m.Close(ctx))
}

func TestNew_DefaultsToScriptedEngine(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	defer closeMesh(t, m)

	// The default scripted engine reports unknown commands as error output.
	_, out, err := m.Run(context.Background(), "lm")
	require.NoError(t, err)
	assert.Contains(t, out.Error, "Unrecognized command")
}

func TestNew_WithDebugger(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("version", "engine 10.0\n")

	m, err := New(WithDebugger(dbg))
	require.NoError(t, err)
	defer closeMesh(t, m)

	id, out, err := m.Run(context.Background(), "version")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "engine 10.0\n", out.Normal)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = "remote"

	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown engine "remote"`)
}

func TestHistory_RecordsByDefault(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("r", "rax=0\n")

	m, err := New(WithDebugger(dbg))
	require.NoError(t, err)
	defer closeMesh(t, m)

	_, _, err = m.Run(context.Background(), "r")
	require.NoError(t, err)

	records, err := m.History().List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r", records[0].Command)
}

func TestRunAsync(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("g", "running\n")

	m, err := New(WithDebugger(dbg))
	require.NoError(t, err)
	defer closeMesh(t, m)

	_, fut := m.RunAsync("g")
	out, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "running\n", out.Normal)
}

func TestStream(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("long", "partial")

	m, err := New(WithDebugger(dbg))
	require.NoError(t, err)
	defer closeMesh(t, m)

	var streamed string
	_, _, err = m.Stream(context.Background(), "long", func(text string) {
		streamed += text
	})
	require.NoError(t, err)
	assert.Equal(t, "partial", streamed)
}
