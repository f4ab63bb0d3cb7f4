package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorolabs/sdbg/host"
)

// newTestEngine builds a session over a contract whose call graph is
// main -> transfer -> log_evt, with transfer writing storage after the
// nested call returns.
func newTestEngine(t *testing.T) (*Engine, *host.Host) {
	t.Helper()
	h, err := host.NewHost(100_000_000, 0)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	image := host.NewContractBuilder("demo").
		Func("main", 0, host.NewAsm().Call("transfer").Ret()).
		Func("transfer", 0, host.NewAsm().Call("log_evt").PushSym("done").Push(1).Op(host.SSTORE).Ret()).
		Func("log_evt", 0, host.NewAsm().Push(7).Op(host.LOG).Ret()).
		Func("bad", 0, host.NewAsm().Op(host.ADD).Ret()).
		Image()
	_, err = h.RegisterContract("demo", image)
	require.NoError(t, err)

	return NewEngine(h), h
}

func frameNames(frames []Frame) []string {
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = f.Function
	}
	return names
}

func TestExecuteToCompletion(t *testing.T) {
	e, h := newTestEngine(t)

	v, err := e.Execute("main", nil)
	require.NoError(t, err)
	assert.Equal(t, host.KindVoid, v.Kind())
	assert.False(t, e.IsPaused())
	assert.Equal(t, 0, e.State().CallStack().Depth())
	assert.Equal(t, map[string]string{"done": "1"}, h.Storage())
}

func TestBreakpointPausesBeforeBodyEffects(t *testing.T) {
	e, h := newTestEngine(t)
	e.Breakpoints().Add("transfer")

	_, err := e.Execute("main", nil)
	require.NoError(t, err)
	require.True(t, e.IsPaused())

	fn, ok := e.State().CurrentFunction()
	require.True(t, ok)
	assert.Equal(t, "transfer", fn)
	assert.Equal(t, []string{"main", "transfer"}, frameNames(e.State().CallStack().Frames()))

	// paused before any instruction of transfer has storage effects
	assert.Empty(t, h.Storage())

	// the paused current function always names the top frame
	top, _ := e.State().CallStack().Top()
	assert.Equal(t, fn, top.Function)
}

func TestStepDescendsIntoCallee(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Breakpoints().Add("transfer")

	_, err := e.Execute("main", nil)
	require.NoError(t, err)
	require.True(t, e.IsPaused())
	before := e.State().StepCount()

	require.NoError(t, e.Step())
	require.True(t, e.IsPaused())
	assert.Equal(t, before+1, e.State().StepCount())
	assert.Equal(t, []string{"main", "transfer", "log_evt"}, frameNames(e.State().CallStack().Frames()))

	fn, _ := e.State().CurrentFunction()
	assert.Equal(t, "log_evt", fn)
}

func TestContinueRunsToCompletion(t *testing.T) {
	e, h := newTestEngine(t)
	e.Breakpoints().Add("transfer")

	_, err := e.Execute("main", nil)
	require.NoError(t, err)
	require.NoError(t, e.Step())
	require.NoError(t, e.Continue())

	assert.False(t, e.IsPaused())
	assert.Equal(t, 0, e.State().CallStack().Depth())
	assert.Equal(t, map[string]string{"done": "1"}, h.Storage())
}

func TestContinuePausesAtNextBreakpoint(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Breakpoints().Add("transfer")
	e.Breakpoints().Add("log_evt")

	_, err := e.Execute("main", nil)
	require.NoError(t, err)
	fn, _ := e.State().CurrentFunction()
	require.Equal(t, "transfer", fn)

	require.NoError(t, e.Continue())
	require.True(t, e.IsPaused())
	fn, _ = e.State().CurrentFunction()
	assert.Equal(t, "log_evt", fn)
	assert.Equal(t, []string{"main", "transfer", "log_evt"}, frameNames(e.State().CallStack().Frames()))

	require.NoError(t, e.Continue())
	assert.False(t, e.IsPaused())
}

func TestStepCountsEveryCall(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Breakpoints().Add("log_evt")

	_, err := e.Execute("main", nil)
	require.NoError(t, err)

	steps := uint64(0)
	for e.IsPaused() {
		require.NoError(t, e.Step())
		steps++
		require.Less(t, steps, uint64(100), "stepping must terminate")
	}
	// one increment per call, including the step that completed execution
	assert.Equal(t, steps, e.State().StepCount())
	assert.Equal(t, 0, e.State().CallStack().Depth())
}

func TestUsageErrors(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.ErrorIs(t, e.Step(), ErrNotPaused)
	assert.ErrorIs(t, e.Continue(), ErrNotPaused)
	assert.ErrorIs(t, e.Abort(), ErrNotPaused)

	e.Breakpoints().Add("transfer")
	_, err := e.Execute("main", nil)
	require.NoError(t, err)
	require.True(t, e.IsPaused())

	_, err = e.Execute("main", nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// usage error leaves the paused invocation intact
	assert.True(t, e.IsPaused())
	assert.Equal(t, []string{"main", "transfer"}, frameNames(e.State().CallStack().Frames()))
	require.NoError(t, e.Continue())
}

func TestFaultCarriesCapturedStack(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute("bad", nil)
	var fault *ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, host.ErrStackUnderflow)
	assert.Equal(t, []string{"bad"}, frameNames(fault.Stack))

	// terminal finished state: not paused, depth zero, fresh execute works
	assert.False(t, e.IsPaused())
	assert.Equal(t, 0, e.State().CallStack().Depth())
	_, err = e.Execute("main", nil)
	assert.NoError(t, err)
}

func TestFaultWhileContinuing(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Breakpoints().Add("bad")

	_, err := e.Execute("bad", nil)
	require.NoError(t, err)
	require.True(t, e.IsPaused())

	err = e.Continue()
	var fault *ExecutionFault
	require.ErrorAs(t, err, &fault)
	assert.False(t, e.IsPaused())
	assert.Equal(t, 0, e.State().CallStack().Depth())
}

func TestAbortLeavesDepthZero(t *testing.T) {
	e, h := newTestEngine(t)
	e.Breakpoints().Add("transfer")

	_, err := e.Execute("main", nil)
	require.NoError(t, err)
	require.True(t, e.IsPaused())

	require.NoError(t, e.Abort())
	assert.False(t, e.IsPaused())
	assert.Equal(t, 0, e.State().CallStack().Depth())
	assert.Empty(t, h.Storage(), "aborted before transfer's store")

	// the session accepts a fresh invocation afterwards
	e.Breakpoints().Remove("transfer")
	_, err = e.Execute("main", nil)
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"done": "1"}, h.Storage())
}

func TestBreakpointFiresOnEveryInvocation(t *testing.T) {
	h, err := host.NewHost(0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	_, err = h.RegisterContract("twice", host.NewContractBuilder("twice").
		Func("outer", 0, host.NewAsm().Call("f").Op(host.POP).Call("f").Ret()).
		Func("f", 0, host.NewAsm().Push(1).Ret()).
		Image())
	require.NoError(t, err)

	e := NewEngine(h)
	e.Breakpoints().Add("f")

	_, err = e.Execute("outer", nil)
	require.NoError(t, err)
	require.True(t, e.IsPaused())
	assert.Equal(t, []string{"outer", "f"}, frameNames(e.State().CallStack().Frames()))

	require.NoError(t, e.Continue())
	require.True(t, e.IsPaused(), "second invocation of f pauses again")
	assert.Equal(t, []string{"outer", "f"}, frameNames(e.State().CallStack().Frames()))

	require.NoError(t, e.Continue())
	assert.False(t, e.IsPaused())
}

func TestLastResult(t *testing.T) {
	h, err := host.NewHost(0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	_, err = h.RegisterContract("math", host.NewContractBuilder("math").
		Func("answer", 0, host.NewAsm().Push(6).Push(7).Op(host.MUL).Ret()).
		Image())
	require.NoError(t, err)

	e := NewEngine(h)
	_, ok := e.LastResult()
	assert.False(t, ok)

	v, err := e.Execute("answer", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v.AsU64())

	last, ok := e.LastResult()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), last.AsU64())
}
