package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/dbg/scripted"
	"github.com/hupe1980/dbgmesh/history"
	"github.com/hupe1980/dbgmesh/internal/testutil"
)

// MockDebugger is a testify mock implementing core.Debugger.
type MockDebugger struct {
	mock.Mock

	mu  sync.Mutex
	out core.OutputFunc
}

func (m *MockDebugger) Execute(ctx context.Context, command string) error {
	args := m.Called(ctx, command)
	return args.Error(0)
}

func (m *MockDebugger) SetOutputFunc(fn core.OutputFunc) {
	m.mu.Lock()
	m.out = fn
	m.mu.Unlock()
}

func (m *MockDebugger) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDebugger) emit(chunk core.OutputChunk) {
	m.mu.Lock()
	fn := m.out
	m.mu.Unlock()
	if fn != nil {
		fn(chunk)
	}
}

func closeEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, e.Close(ctx))
}

func TestRun_ReturnsClassifiedOutput(t *testing.T) {
	dbg := scripted.New()
	dbg.Script("lm", testutil.NewScriptBuilder().
		Normal("start    end        module name\n").
		Warning("symbols could be wrong\n").
		Build())

	e := New(dbg)
	defer closeEngine(t, e)

	id, out, err := e.Run(context.Background(), "lm")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "start    end        module name\n", out.Normal)
	assert.Equal(t, "symbols could be wrong\n", out.Warning)

	diag := out.Diagnostic()
	require.Error(t, diag)
	var cmdErr *core.CommandError
	require.ErrorAs(t, diag, &cmdErr)
	assert.Equal(t, "symbols could be wrong\n", cmdErr.WarningText)
}

func TestRun_ConcurrentCallersIsolated(t *testing.T) {
	dbg := scripted.New(scripted.WithAsync())
	dbg.ScriptText("a", "hello")
	dbg.ScriptText("b", "world")

	e := New(dbg)
	defer closeEngine(t, e)

	var wg sync.WaitGroup
	outs := make([]core.Output, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, outs[0], errs[0] = e.Run(context.Background(), "a")
	}()
	go func() {
		defer wg.Done()
		_, outs[1], errs[1] = e.Run(context.Background(), "b")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, "hello", outs[0].Normal, "caller A must read back exactly its own text")
	assert.Equal(t, "world", outs[1].Normal, "caller B must read back exactly its own text")
}

func TestRun_ExecutionErrorPropagatesWithOutput(t *testing.T) {
	wantErr := errors.New("invalid address")
	dbg := scripted.New()
	dbg.Script("dd 0", testutil.NewScriptBuilder().
		Normal("partial dump\n").
		Fail(wantErr).
		Build())

	e := New(dbg)
	defer closeEngine(t, e)

	_, out, err := e.Run(context.Background(), "dd 0")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, "partial dump\n", out.Normal, "text captured before the failure is preserved")
}

func TestRun_EmptyOutputIsEmptyString(t *testing.T) {
	dbg := scripted.New()
	dbg.Script("g", scripted.Response{})

	e := New(dbg)
	defer closeEngine(t, e)

	_, out, err := e.Run(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, "", out.Normal)
	assert.NoError(t, out.Diagnostic())
}

func TestRun_UsesMockDebugger(t *testing.T) {
	dbg := &MockDebugger{}
	dbg.On("Execute", mock.Anything, "k").Run(func(args mock.Arguments) {
		dbg.emit(testutil.Normal("frame 00\n"))
	}).Return(nil)
	dbg.On("Close").Return(nil)

	e := New(dbg)

	_, out, err := e.Run(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "frame 00\n", out.Normal)

	closeEngine(t, e)
	dbg.AssertExpectations(t)
}

func TestStream_DeliversPartialText(t *testing.T) {
	dbg := scripted.New()
	dbg.Script("long", testutil.NewScriptBuilder().
		Normal("chunk-1 ").
		Normal("chunk-2 ").
		Normal("chunk-3").
		Build())

	e := New(dbg)
	defer closeEngine(t, e)

	var mu sync.Mutex
	var streamed []string
	_, out, err := e.Stream(context.Background(), "long", func(text string) {
		mu.Lock()
		streamed = append(streamed, text)
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-1 ", "chunk-2 ", "chunk-3"}, streamed)
	assert.Equal(t, "chunk-1 chunk-2 chunk-3", out.Normal)
}

func TestRunAsync_FutureResolves(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("version", "engine 10.0\n")

	e := New(dbg)
	defer closeEngine(t, e)

	id, fut := e.RunAsync("version")
	assert.NotEmpty(t, id)

	out, err := fut.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "engine 10.0\n", out.Normal)
}

func TestRun_RecordsHistory(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("r", "rax=0\n")

	store := history.NewInMemoryStore()
	e := New(dbg, WithHistory(store))
	defer closeEngine(t, e)

	_, _, err := e.Run(context.Background(), "r")
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r", records[0].Command)
	assert.Equal(t, "rax=0\n", records[0].Output.Normal)
	assert.Empty(t, records[0].Err)
}

func TestRun_SequentialHistoryOrder(t *testing.T) {
	dbg := scripted.New()
	dbg.ScriptText("one", "1")
	dbg.ScriptText("two", "2")
	dbg.ScriptText("three", "3")

	store := history.NewInMemoryStore()
	e := New(dbg, WithHistory(store))
	defer closeEngine(t, e)

	for _, cmd := range []string{"one", "two", "three"} {
		_, _, err := e.Run(context.Background(), cmd)
		require.NoError(t, err)
	}

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "one", records[0].Command)
	assert.Equal(t, "two", records[1].Command)
	assert.Equal(t, "three", records[2].Command)
}

func TestClose_RejectsFurtherCommands(t *testing.T) {
	dbg := scripted.New()
	e := New(dbg)
	closeEngine(t, e)

	_, _, err := e.Run(context.Background(), "anything")
	assert.ErrorIs(t, err, core.ErrExecutorClosed)
}
