package debugger

import (
	"fmt"
	"sync"

	"github.com/xlab/treeprint"
)

// Frame is one active contract-function invocation: the function name and
// a host-rendered argument summary.
type Frame struct {
	Function string
	Args     string
}

// CallStack tracks the active call frames of the in-flight invocation.
// Frames form a strict stack: pushed on function entry, popped on exit,
// outermost first. It is safe for concurrent reads while the engine's
// hooks mutate it.
type CallStack struct {
	mu     sync.Mutex
	frames []Frame
}

func NewCallStack() *CallStack {
	return &CallStack{}
}

func (cs *CallStack) Push(f Frame) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.frames = append(cs.frames, f)
}

// Pop removes and returns the top frame. Popping an empty stack panics:
// it means the host broke the entry/exit pairing contract.
func (cs *CallStack) Pop() Frame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.frames) == 0 {
		panic("callstack: pop of empty stack; host entry/exit pairing broken")
	}
	f := cs.frames[len(cs.frames)-1]
	cs.frames = cs.frames[:len(cs.frames)-1]
	return f
}

// Top returns the innermost frame, if any.
func (cs *CallStack) Top() (Frame, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.frames) == 0 {
		return Frame{}, false
	}
	return cs.frames[len(cs.frames)-1], true
}

func (cs *CallStack) Depth() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.frames)
}

// Frames returns a copy, outermost first.
func (cs *CallStack) Frames() []Frame {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]Frame, len(cs.frames))
	copy(out, cs.frames)
	return out
}

// Clear drops all frames. Used when the session transitions to the
// terminal finished state after a fault or abort.
func (cs *CallStack) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.frames = cs.frames[:0]
}

// Format renders the stack as a tree, outermost frame at the root and the
// innermost frame deepest.
func (cs *CallStack) Format() string {
	frames := cs.Frames()
	if len(frames) == 0 {
		return "call stack: (empty)\n"
	}
	tree := treeprint.New()
	tree.SetValue("call stack")
	branch := tree
	for _, f := range frames {
		if f.Args == "" {
			branch = branch.AddBranch(fmt.Sprintf("%s()", f.Function))
		} else {
			branch = branch.AddBranch(fmt.Sprintf("%s(%s)", f.Function, f.Args))
		}
	}
	return tree.String()
}
