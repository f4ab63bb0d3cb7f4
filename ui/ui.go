// Package ui drives the interactive debug session: a readline command
// loop dispatching to the engine and rendering the typed snapshots the
// inspectors produce.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sorolabs/sdbg/debugger"
	"github.com/sorolabs/sdbg/inspector"
	"github.com/sorolabs/sdbg/log"
)

// DebuggerUI is the terminal front end for one debug session.
type DebuggerUI struct {
	engine  *debugger.Engine
	storage *inspector.StorageInspector
	out     io.Writer
}

func New(engine *debugger.Engine) *DebuggerUI {
	return &DebuggerUI{
		engine:  engine,
		storage: inspector.NewStorageInspector(engine.Host()),
		out:     os.Stdout,
	}
}

// SetOutput redirects rendering, used by tests.
func (ui *DebuggerUI) SetOutput(w io.Writer) {
	ui.out = w
}

// Run enters the interactive loop until quit or EOF.
func (ui *DebuggerUI) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "(debug) ",
		HistoryFile: filepath.Join(os.TempDir(), "sdbg_history.txt"),
	})
	if err != nil {
		return fmt.Errorf("start readline: %w", err)
	}
	defer rl.Close()

	ui.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			return nil
		}
		command := strings.TrimSpace(line)
		if command == "" {
			continue
		}
		exit, err := ui.HandleCommand(command)
		if err != nil {
			log.Error(log.UIMonitoring, "command failed", "err", err)
		}
		if exit {
			return nil
		}
	}
}

// HandleCommand dispatches one command line. The first return reports
// whether the loop should exit. Usage errors from the engine are rendered
// inline and do not propagate: the loop stays live for further commands.
func (ui *DebuggerUI) HandleCommand(command string) (bool, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "run":
		if len(parts) < 2 {
			fmt.Fprintln(ui.out, "Usage: run <function_name> [args]")
			return false, nil
		}
		ui.cmdRun(parts[1], strings.Join(parts[2:], " "))

	case "s", "step":
		if err := ui.engine.Step(); err != nil {
			if errors.Is(err, debugger.ErrNotPaused) {
				return false, err
			}
			ui.renderFailure(err)
			return false, nil
		}
		log.Info(log.UIMonitoring, "stepped", "step_count", ui.engine.State().StepCount())
		ui.afterAdvance()

	case "c", "continue":
		log.Info(log.UIMonitoring, "execution continuing")
		if err := ui.engine.Continue(); err != nil {
			if errors.Is(err, debugger.ErrNotPaused) {
				return false, err
			}
			ui.renderFailure(err)
			return false, nil
		}
		ui.afterAdvance()

	case "abort":
		if err := ui.engine.Abort(); err != nil {
			return false, err
		}
		fmt.Fprintln(ui.out, "Invocation aborted")

	case "i", "inspect":
		ui.inspect()

	case "storage":
		ui.renderStorage()

	case "stack":
		fmt.Fprint(ui.out, ui.engine.State().CallStack().Format())

	case "budget":
		renderBudget(ui.out, inspector.GetCPUUsage(ui.engine.Host()))

	case "break":
		if len(parts) < 2 {
			log.Warn(log.UIMonitoring, "breakpoint set without function name")
			return false, nil
		}
		ui.engine.Breakpoints().Add(parts[1])
		log.Info(log.UIMonitoring, "breakpoint set", "fn", parts[1])

	case "list-breaks":
		breaks := ui.engine.Breakpoints().List()
		if len(breaks) == 0 {
			fmt.Fprintln(ui.out, "No breakpoints set")
		} else {
			for _, bp := range breaks {
				fmt.Fprintf(ui.out, "- %s\n", bp)
			}
		}

	case "clear":
		if len(parts) < 2 {
			log.Warn(log.UIMonitoring, "clear command missing function name")
		} else if ui.engine.Breakpoints().Remove(parts[1]) {
			log.Info(log.UIMonitoring, "breakpoint cleared", "fn", parts[1])
		} else {
			log.Debug(log.UIMonitoring, "no breakpoint found at function", "fn", parts[1])
		}

	case "help":
		ui.printHelp()

	case "q", "quit", "exit":
		log.Info(log.UIMonitoring, "exiting debugger")
		return true, nil

	default:
		log.Warn(log.UIMonitoring, "unknown command", "command", parts[0])
	}

	return false, nil
}

// cmdRun starts a fresh invocation and renders its outcome.
func (ui *DebuggerUI) cmdRun(fn, argExpr string) {
	args, err := DecodeArgs(argExpr)
	if err != nil {
		fmt.Fprintf(ui.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(ui.out, "\n--- Execution Start: %s ---\n", fn)
	result, err := ui.engine.Execute(fn, args)
	if err != nil {
		if errors.Is(err, debugger.ErrAlreadyRunning) {
			fmt.Fprintln(ui.out, "Error: an invocation is already paused; continue, step, or abort it first")
			return
		}
		ui.renderFailure(err)
		return
	}
	if ui.engine.IsPaused() {
		ui.renderBreakpointHit()
		return
	}
	fmt.Fprintln(ui.out, "\n--- Execution Complete ---")
	fmt.Fprintf(ui.out, "Result: %s\n", result.String())
}

// afterAdvance renders the state reached by a successful step/continue:
// paused again, or finished with a result.
func (ui *DebuggerUI) afterAdvance() {
	if ui.engine.IsPaused() {
		ui.renderBreakpointHit()
		return
	}
	fmt.Fprintln(ui.out, "\n--- Execution Complete ---")
	if result, ok := ui.engine.LastResult(); ok {
		fmt.Fprintf(ui.out, "Result: %s\n", result.String())
	}
}

// renderFailure prints a host fault with the call stack captured at the
// moment of failure.
func (ui *DebuggerUI) renderFailure(err error) {
	fmt.Fprintln(ui.out, "\n--- Execution Failed ---")
	fmt.Fprintf(ui.out, "Error: %v\n", err)
	var fault *debugger.ExecutionFault
	if errors.As(err, &fault) && len(fault.Stack) > 0 {
		for i, f := range fault.Stack {
			fmt.Fprintf(ui.out, "  %*s%s(%s)\n", 2*i, "", f.Function, f.Args)
		}
	}
}
