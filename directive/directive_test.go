package directive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/dbg/scripted"
	"github.com/hupe1980/dbgmesh/engine"
)

func TestParse(t *testing.T) {
	cmds := Parse("lm\n\n  .model verbose  \ng\n.history\n")

	require.Len(t, cmds, 4)

	assert.Equal(t, "lm", cmds[0].Raw)
	assert.False(t, cmds[0].IsDirective())

	assert.Equal(t, ".model verbose", cmds[1].Raw)
	assert.True(t, cmds[1].IsDirective())
	assert.Equal(t, "model", cmds[1].Name)
	assert.Equal(t, []string{"verbose"}, cmds[1].Args)

	assert.Equal(t, "g", cmds[2].Raw)
	assert.False(t, cmds[2].IsDirective())

	assert.Equal(t, "history", cmds[3].Name)
	assert.Empty(t, cmds[3].Args)
}

func TestParse_EmptySubmission(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("  \n\t\n"))
}

func newTestEngine(t *testing.T, dbg *scripted.Debugger) *engine.Engine {
	t.Helper()
	e := engine.New(dbg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, e.Close(ctx))
	})
	return e
}

func TestExecute_MixedSubmission(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("lm", "module list\n")
	dbg.ScriptText("g", "running\n")

	d := NewDispatcher(newTestEngine(t, dbg))
	d.Register("echo", func(ctx context.Context, args []string) (core.Output, error) {
		return core.Output{Normal: "echo: " + args[0] + "\n"}, nil
	})

	results, err := d.Execute(context.Background(), "lm\n.echo hi\ng")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "module list\n", results[0].Output.Normal)
	assert.Equal(t, "echo: hi\n", results[1].Output.Normal)
	assert.True(t, results[1].Command.IsDirective())
	assert.Equal(t, "running\n", results[2].Output.Normal)
}

func TestExecute_UnknownDirectiveStops(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("lm", "modules\n")
	dbg.ScriptText("g", "running\n")

	d := NewDispatcher(newTestEngine(t, dbg))

	results, err := d.Execute(context.Background(), "lm\n.nosuch\ng")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown directive "nosuch"`)

	// The failing line is included, the line after it never runs.
	require.Len(t, results, 2)
	assert.Equal(t, "modules\n", results[0].Output.Normal)
	assert.Error(t, results[1].Err)
}

func TestExecute_HandlerErrorStops(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("g", "running\n")

	d := NewDispatcher(newTestEngine(t, dbg))
	wantErr := assert.AnError
	d.Register("boom", func(ctx context.Context, args []string) (core.Output, error) {
		return core.Output{}, wantErr
	})

	results, err := d.Execute(context.Background(), ".boom\ng")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	require.Len(t, results, 1)
}

func TestExecute_EngineErrorStops(t *testing.T) {
	dbg := scripted.New(scripted.WithStrict())
	dbg.ScriptText("lm", "modules\n")

	d := NewDispatcher(newTestEngine(t, dbg))

	results, err := d.Execute(context.Background(), "lm\nbadcmd\nlm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line "badcmd" failed`)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
}

func TestRegister_ReplacesHandler(t *testing.T) {
	dbg := scripted.New()
	d := NewDispatcher(newTestEngine(t, dbg))

	d.Register("v", func(ctx context.Context, args []string) (core.Output, error) {
		return core.Output{Normal: "first"}, nil
	})
	d.Register("v", func(ctx context.Context, args []string) (core.Output, error) {
		return core.Output{Normal: "second"}, nil
	})

	results, err := d.Execute(context.Background(), ".v")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second", results[0].Output.Normal)
}
