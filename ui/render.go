package ui

import (
	"fmt"
	"io"
	"sort"

	"github.com/sorolabs/sdbg/inspector"
)

const (
	storagePreviewEntries = 5
	entryTruncateAt       = 68
	budgetWarnThreshold   = 80.0
)

// renderBreakpointHit draws the pause banner: current function, argument
// summary, previous frame, and a preview of storage state.
func (ui *DebuggerUI) renderBreakpointHit() {
	state := ui.engine.State()
	currentFn, ok := state.CurrentFunction()
	if !ok {
		currentFn = "unknown"
	}
	args, ok := state.CurrentArgs()
	if !ok || args == "" {
		args = "none"
	}
	stack := state.CallStack().Frames()
	prevFn := "none"
	if len(stack) > 1 {
		prevFn = stack[len(stack)-2].Function
	}

	w := ui.out
	fmt.Fprintln(w, "\n┌────────────────────────────────────────────────────────────────────────┐")
	fmt.Fprintln(w, "│ 🛑 BREAKPOINT HIT                                                      │")
	fmt.Fprintln(w, "├────────────────────────────────────────────────────────────────────────┤")
	fmt.Fprintf(w, "│ %-14s │ %-53s │\n", "Function", currentFn)
	fmt.Fprintf(w, "│ %-14s │ %-53s │\n", "Arguments", args)
	fmt.Fprintf(w, "│ %-14s │ %-53s │\n", "Previous", prevFn)
	fmt.Fprintln(w, "├────────────────────────────────────────────────────────────────────────┤")
	fmt.Fprintln(w, "│ STORAGE STATE                                                          │")

	storage := ui.storage.GetAll()
	if len(storage) == 0 {
		fmt.Fprintln(w, "│ (empty)                                                                │")
	} else {
		keys := make([]string, 0, len(storage))
		for k := range storage {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		shown := keys
		if len(shown) > storagePreviewEntries {
			shown = shown[:storagePreviewEntries]
		}
		for _, key := range shown {
			entry := fmt.Sprintf("%s = %s", key, storage[key])
			if len(entry) > entryTruncateAt {
				entry = entry[:entryTruncateAt-3] + "..."
			}
			fmt.Fprintf(w, "│ %-70s │\n", entry)
		}
		if len(keys) > storagePreviewEntries {
			fmt.Fprintf(w, "│ ... (and %d more)                                                       │\n", len(keys)-storagePreviewEntries)
		}
	}
	fmt.Fprintln(w, "└────────────────────────────────────────────────────────────────────────┘")
}

// renderBudget prints resource usage and warns above the threshold.
func renderBudget(w io.Writer, info inspector.BudgetInfo) {
	fmt.Fprintln(w, "Resource Budget:")
	fmt.Fprintf(w, "  CPU: %d / %d (%.1f%%)\n", info.CPUInstructions, info.CPULimit, info.CPUPercentage())
	fmt.Fprintf(w, "  Memory: %d / %d bytes (%.1f%%)\n", info.MemoryBytes, info.MemoryLimit, info.MemoryPercentage())

	if info.CPUPercentage() > budgetWarnThreshold {
		fmt.Fprintln(w, "  WARNING: High CPU usage!")
	}
	if info.MemoryPercentage() > budgetWarnThreshold {
		fmt.Fprintln(w, "  WARNING: High memory usage!")
	}
}

// renderStorage prints the full mapping sorted by key.
func (ui *DebuggerUI) renderStorage() {
	storage := ui.storage.GetAll()
	if len(storage) == 0 {
		fmt.Fprintln(ui.out, "Storage: (empty)")
		return
	}
	fmt.Fprintln(ui.out, "Storage:")
	for _, key := range ui.storage.SortedKeys() {
		fmt.Fprintf(ui.out, "  %s = %s\n", key, storage[key])
	}
}

// inspect shows the current execution state: banner when paused, a plain
// summary otherwise.
func (ui *DebuggerUI) inspect() {
	if ui.engine.IsPaused() {
		ui.renderBreakpointHit()
		return
	}
	state := ui.engine.State()
	fmt.Fprintln(ui.out, "\n=== Current State ===")
	if fn, ok := state.CurrentFunction(); ok {
		fmt.Fprintf(ui.out, "Function: %s\n", fn)
	} else {
		fmt.Fprintln(ui.out, "Function: (none)")
	}
	fmt.Fprintf(ui.out, "Steps: %d\n", state.StepCount())
	fmt.Fprintf(ui.out, "Paused: %t\n", ui.engine.IsPaused())
	fmt.Fprintln(ui.out)
	fmt.Fprint(ui.out, state.CallStack().Format())
}

func (ui *DebuggerUI) printHelp() {
	w := ui.out
	fmt.Fprintln(w, "\nAvailable commands:")
	fmt.Fprintln(w, "  run <func> [args]    Run a contract function")
	fmt.Fprintln(w, "  s, step              Advance one execution step")
	fmt.Fprintln(w, "  c, continue          Run until breakpoint or completion")
	fmt.Fprintln(w, "  i, inspect           Show current execution state")
	fmt.Fprintln(w, "  storage              Display contract storage")
	fmt.Fprintln(w, "  stack                Show call stack")
	fmt.Fprintln(w, "  budget               Show resource usage (CPU/memory)")
	fmt.Fprintln(w, "  break <function>     Set breakpoint at function")
	fmt.Fprintln(w, "  list-breaks          List all breakpoints")
	fmt.Fprintln(w, "  clear <function>     Remove breakpoint")
	fmt.Fprintln(w, "  abort                Abandon the paused invocation")
	fmt.Fprintln(w, "  help                 Show this help message")
	fmt.Fprintln(w, "  q, quit              Exit debugger")
}
