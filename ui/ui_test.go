package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sorolabs/sdbg/debugger"
	"github.com/sorolabs/sdbg/host"
)

func newTestUI(t *testing.T) (*DebuggerUI, *bytes.Buffer) {
	t.Helper()
	h, err := host.NewHost(0, 0)
	require.NoError(t, err)

	image := host.NewContractBuilder("token").
		Func("main", 0, host.NewAsm().Call("transfer").Ret()).
		Func("transfer", 0, host.NewAsm().
			PushSym("last_op").PushSym("transfer").Op(host.SSTORE).
			Push(42).Ret()).
		Func("sum", 2, host.NewAsm().Op(host.ADD).Ret()).
		Image()
	_, err = h.RegisterContract("token", image)
	require.NoError(t, err)

	engine := debugger.NewEngine(h)
	ui := New(engine)
	out := &bytes.Buffer{}
	ui.SetOutput(out)
	return ui, out
}

func TestDecodeArgs(t *testing.T) {
	args, err := DecodeArgs("")
	require.NoError(t, err)
	require.Empty(t, args)

	args, err = DecodeArgs("[1, 2]")
	require.NoError(t, err)
	require.Len(t, args, 2)
	require.Equal(t, host.U64(1), args[0])
	require.Equal(t, host.U64(2), args[1])

	args, err = DecodeArgs("7")
	require.NoError(t, err)
	require.Len(t, args, 1)
	require.Equal(t, host.U64(7), args[0])

	args, err = DecodeArgs(`["hello", 3]`)
	require.NoError(t, err)
	require.Equal(t, host.Sym("hello"), args[0])

	// expressions evaluate before decoding
	args, err = DecodeArgs("[1 + 1]")
	require.NoError(t, err)
	require.Equal(t, host.U64(2), args[0])

	_, err = DecodeArgs("nonsense(")
	require.Error(t, err)

	// fractional and oversized numbers are refused, not truncated
	_, err = DecodeArgs("[1.5]")
	require.Error(t, err)
	_, err = DecodeArgs("[1e20]")
	require.Error(t, err)
}

func TestRunToCompletion(t *testing.T) {
	ui, out := newTestUI(t)

	exit, err := ui.HandleCommand("run sum [19, 23]")
	require.NoError(t, err)
	require.False(t, exit)
	require.Contains(t, out.String(), "--- Execution Start: sum ---")
	require.Contains(t, out.String(), "--- Execution Complete ---")
	require.Contains(t, out.String(), "Result: 42")
}

func TestRunMissingFunctionName(t *testing.T) {
	ui, out := newTestUI(t)

	exit, err := ui.HandleCommand("run")
	require.NoError(t, err)
	require.False(t, exit)
	require.Contains(t, out.String(), "Usage: run <function_name> [args]")
}

func TestBreakpointBannerAndContinue(t *testing.T) {
	ui, out := newTestUI(t)

	_, err := ui.HandleCommand("break transfer")
	require.NoError(t, err)

	_, err = ui.HandleCommand("run main")
	require.NoError(t, err)
	require.True(t, ui.engine.IsPaused())
	require.Contains(t, out.String(), "BREAKPOINT HIT")
	require.Contains(t, out.String(), "transfer")

	out.Reset()
	_, err = ui.HandleCommand("c")
	require.NoError(t, err)
	require.False(t, ui.engine.IsPaused())
	require.Contains(t, out.String(), "--- Execution Complete ---")
	require.Contains(t, out.String(), "Result: 42")
}

func TestStepFromBreakpoint(t *testing.T) {
	ui, out := newTestUI(t)

	_, err := ui.HandleCommand("break transfer")
	require.NoError(t, err)
	_, err = ui.HandleCommand("run main")
	require.NoError(t, err)
	require.True(t, ui.engine.IsPaused())

	out.Reset()
	_, err = ui.HandleCommand("s")
	require.NoError(t, err)
	require.True(t, ui.engine.IsPaused())
	require.Equal(t, uint64(1), ui.engine.State().StepCount())

	// drive to completion
	_, err = ui.HandleCommand("c")
	require.NoError(t, err)
	require.False(t, ui.engine.IsPaused())
}

func TestStepWithoutPausedInvocation(t *testing.T) {
	ui, _ := newTestUI(t)

	_, err := ui.HandleCommand("step")
	require.ErrorIs(t, err, debugger.ErrNotPaused)

	_, err = ui.HandleCommand("continue")
	require.ErrorIs(t, err, debugger.ErrNotPaused)

	_, err = ui.HandleCommand("abort")
	require.ErrorIs(t, err, debugger.ErrNotPaused)
}

func TestAbortCommand(t *testing.T) {
	ui, out := newTestUI(t)

	_, err := ui.HandleCommand("break transfer")
	require.NoError(t, err)
	_, err = ui.HandleCommand("run main")
	require.NoError(t, err)
	require.True(t, ui.engine.IsPaused())

	out.Reset()
	_, err = ui.HandleCommand("abort")
	require.NoError(t, err)
	require.False(t, ui.engine.IsPaused())
	require.Contains(t, out.String(), "Invocation aborted")
	require.Equal(t, 0, ui.engine.State().CallStack().Depth())
}

func TestBreakpointListAndClear(t *testing.T) {
	ui, out := newTestUI(t)

	_, err := ui.HandleCommand("list-breaks")
	require.NoError(t, err)
	require.Contains(t, out.String(), "No breakpoints set")

	_, err = ui.HandleCommand("break transfer")
	require.NoError(t, err)
	_, err = ui.HandleCommand("break main")
	require.NoError(t, err)

	out.Reset()
	_, err = ui.HandleCommand("list-breaks")
	require.NoError(t, err)
	require.Contains(t, out.String(), "- main")
	require.Contains(t, out.String(), "- transfer")

	_, err = ui.HandleCommand("clear transfer")
	require.NoError(t, err)
	require.False(t, ui.engine.Breakpoints().Contains("transfer"))
	require.True(t, ui.engine.Breakpoints().Contains("main"))
}

func TestStorageAndBudgetRendering(t *testing.T) {
	ui, out := newTestUI(t)

	_, err := ui.HandleCommand("run main")
	require.NoError(t, err)

	out.Reset()
	_, err = ui.HandleCommand("storage")
	require.NoError(t, err)
	require.Contains(t, out.String(), "last_op")
	require.Contains(t, out.String(), "transfer")

	out.Reset()
	_, err = ui.HandleCommand("budget")
	require.NoError(t, err)
	require.Contains(t, out.String(), "Resource Budget:")
	require.Contains(t, out.String(), "CPU:")
	require.Contains(t, out.String(), "Memory:")
}

func TestStackCommandWhilePaused(t *testing.T) {
	ui, out := newTestUI(t)

	_, err := ui.HandleCommand("break transfer")
	require.NoError(t, err)
	_, err = ui.HandleCommand("run main")
	require.NoError(t, err)

	out.Reset()
	_, err = ui.HandleCommand("stack")
	require.NoError(t, err)
	require.Contains(t, out.String(), "main")
	require.Contains(t, out.String(), "transfer")

	_, err = ui.HandleCommand("abort")
	require.NoError(t, err)
}

func TestFaultRendering(t *testing.T) {
	ui, out := newTestUI(t)

	// sum with the wrong arity faults at dispatch
	_, err := ui.HandleCommand("run sum [1]")
	require.NoError(t, err)
	require.Contains(t, out.String(), "--- Execution Failed ---")
	require.Contains(t, out.String(), "Error:")
}

func TestQuitAndUnknownCommand(t *testing.T) {
	ui, _ := newTestUI(t)

	exit, err := ui.HandleCommand("bogus")
	require.NoError(t, err)
	require.False(t, exit)

	for _, cmd := range []string{"q", "quit", "exit"} {
		exit, err = ui.HandleCommand(cmd)
		require.NoError(t, err)
		require.True(t, exit)
	}
}
