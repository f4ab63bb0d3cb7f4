package debugger

import "sync"

// ExecutionState is the shared record the front end inspects between
// commands: pause flag, step counter, current function/arguments, and the
// call stack. The engine's hooks mutate it only while an
// Execute/Step/Continue call has not yet returned, so readers observing it
// after any of those calls see a consistent snapshot; the lock makes that
// contract robust against misuse rather than enabling genuine concurrent
// mutation.
type ExecutionState struct {
	mu         sync.Mutex
	paused     bool
	stepCount  uint64
	currentFn  string
	currentArgs string
	hasCurrent bool
	stack      *CallStack
}

func NewExecutionState() *ExecutionState {
	return &ExecutionState{stack: NewCallStack()}
}

func (s *ExecutionState) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// StepCount is monotonically non-decreasing over the debug session.
func (s *ExecutionState) StepCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepCount
}

// CurrentFunction returns the function of the innermost frame entered so
// far; the second return is false before the first entry of a session.
func (s *ExecutionState) CurrentFunction() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFn, s.hasCurrent
}

func (s *ExecutionState) CurrentArgs() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentArgs, s.hasCurrent
}

func (s *ExecutionState) CallStack() *CallStack {
	return s.stack
}

func (s *ExecutionState) setPaused(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = p
}

func (s *ExecutionState) bumpStepCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepCount++
}

func (s *ExecutionState) setCurrent(fn, args string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFn = fn
	s.currentArgs = args
	s.hasCurrent = true
}

// enterFrame records a function entry: push the frame and track it as
// current. Both writes happen on the dispatch goroutine before any
// pause, so a paused state's current function always equals the top
// frame even though the stack and the state lock separately.
func (s *ExecutionState) enterFrame(fn, args string) {
	s.stack.Push(Frame{Function: fn, Args: args})
	s.setCurrent(fn, args)
}

// exitFrame records a function exit. The current function falls back to
// the new top frame when one remains.
func (s *ExecutionState) exitFrame() {
	s.stack.Pop()
	if top, ok := s.stack.Top(); ok {
		s.setCurrent(top.Function, top.Args)
	}
}

// reset clears the in-flight invocation's traces: pause flag, current
// function, and the stack. The step counter survives for the session.
func (s *ExecutionState) reset() {
	s.stack.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.currentFn = ""
	s.currentArgs = ""
	s.hasCurrent = false
}
