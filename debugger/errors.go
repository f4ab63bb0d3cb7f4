package debugger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyRunning is returned by Execute when a previous invocation
	// is still in flight (paused). A session runs one invocation at a time.
	ErrAlreadyRunning = errors.New("an invocation is already in flight")

	// ErrNotPaused is returned by Step/Continue/Abort when there is no
	// paused invocation to advance.
	ErrNotPaused = errors.New("execution is not paused")

	// ErrAborted unwinds a paused invocation when the operator abandons it.
	ErrAborted = errors.New("invocation aborted")
)

// ExecutionFault wraps a host fault together with the call stack captured
// at the moment of failure. After the fault surfaces the session is
// finished; only a fresh Execute can run again.
type ExecutionFault struct {
	Err   error
	Stack []Frame
}

func (f *ExecutionFault) Error() string {
	if len(f.Stack) == 0 {
		return fmt.Sprintf("execution fault: %v", f.Err)
	}
	names := make([]string, len(f.Stack))
	for i, fr := range f.Stack {
		names[i] = fr.Function
	}
	return fmt.Sprintf("execution fault: %v (call stack: %s)", f.Err, strings.Join(names, " > "))
}

func (f *ExecutionFault) Unwrap() error {
	return f.Err
}
