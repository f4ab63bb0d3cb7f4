package host

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFunction is returned when an invocation names a function
	// the contract does not export.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownContract is returned by XCALL when the named contract is
	// not registered.
	ErrUnknownContract = errors.New("unknown contract")

	// ErrStackUnderflow is returned when an opcode pops more values than
	// the operand stack holds.
	ErrStackUnderflow = errors.New("operand stack underflow")

	// ErrUnknownOpcode is returned when dispatch reaches an undefined opcode.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrCallDepth is returned when nested calls exceed MaxCallDepth.
	ErrCallDepth = errors.New("max call depth exceeded")

	// ErrCPUBudgetExceeded is returned when instruction charges pass the CPU limit.
	ErrCPUBudgetExceeded = errors.New("cpu budget exceeded")

	// ErrMemBudgetExceeded is returned when memory charges pass the memory limit.
	ErrMemBudgetExceeded = errors.New("memory budget exceeded")

	// ErrBadImage is returned when a contract image fails to decode.
	ErrBadImage = errors.New("malformed contract image")

	// ErrArity is returned when an invocation supplies the wrong number of arguments.
	ErrArity = errors.New("argument count mismatch")
)

// Fault is the error the host raises when dispatch fails mid-execution.
// It names the function and program counter at the failure point so the
// debugger can annotate it with the captured call stack.
type Fault struct {
	Fn  string
	PC  int
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault in %s at pc=%d: %v", f.Fn, f.PC, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func newFault(fn string, pc int, err error) *Fault {
	// keep the innermost fault location
	var inner *Fault
	if errors.As(err, &inner) {
		return inner
	}
	return &Fault{Fn: fn, PC: pc, Err: err}
}
