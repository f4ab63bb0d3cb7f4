// Package debugger implements the execution controller for interactive
// contract debugging: it drives the host through an invocation while
// interleaving breakpoint checks, step counting, and call-stack
// maintenance, and exposes a consistent snapshot of execution state at
// every pause.
package debugger

import (
	"errors"

	"github.com/sorolabs/sdbg/host"
	"github.com/sorolabs/sdbg/log"
)

// Engine owns the execution state, the breakpoint registry, and the host
// handle for one debug session. A session supports exactly one in-flight
// invocation at a time, started with Execute and advanced with Step,
// Continue, or Abort.
//
// Host dispatch runs on a dedicated goroutine per invocation. The engine
// installs itself as the host's trace hook; a hook that decides to pause
// blocks the dispatch goroutine on a resume channel while control returns
// to the engine's caller. The host therefore never runs concurrently with
// the front end: either the caller is blocked inside an engine operation,
// or the dispatch goroutine is blocked in a hook.
//
// Step granularity is one trace-event boundary: the completion of a host
// instruction or the entry of a called function, whichever the host
// reports first.
type Engine struct {
	host   *host.Host
	state  *ExecutionState
	breaks *BreakpointRegistry

	inFlight bool
	stepMode bool
	abortReq bool

	resume chan struct{}
	yield  chan yieldEvent

	lastResult host.Value
	hasResult  bool
}

type yieldEvent struct {
	done   bool
	result host.Value
	err    error
}

// NewEngine wires a session around the host and installs the engine as
// the host's trace hook.
func NewEngine(h *host.Host) *Engine {
	e := &Engine{
		host:   h,
		state:  NewExecutionState(),
		breaks: NewBreakpointRegistry(),
	}
	h.SetHook(e)
	return e
}

// Execute begins a fresh invocation. It returns the host's result on
// normal completion, or suspends at the first breakpoint match, leaving
// the session paused and returning a void value. Starting a new
// invocation while one is paused is a usage error.
func (e *Engine) Execute(fn string, args []host.Value) (host.Value, error) {
	if e.inFlight {
		return host.Void(), ErrAlreadyRunning
	}
	e.state.reset()
	e.stepMode = false
	e.abortReq = false
	e.hasResult = false
	e.resume = make(chan struct{})
	e.yield = make(chan yieldEvent)
	e.inFlight = true

	log.Info(log.DbgMonitoring, "execution started", "fn", fn)
	go func() {
		v, err := e.host.Invoke(fn, args)
		e.yield <- yieldEvent{done: true, result: v, err: err}
	}()
	return e.wait()
}

// Step advances the paused invocation by exactly one trace-event boundary
// and re-pauses, unless execution completes or faults during the step.
// The step counter increments exactly once per call regardless of outcome.
func (e *Engine) Step() error {
	if !e.state.Paused() {
		return ErrNotPaused
	}
	e.state.bumpStepCount()
	e.stepMode = true
	e.resume <- struct{}{}
	_, err := e.wait()
	return err
}

// Continue resumes the paused invocation until the next breakpoint match,
// completion, or fault.
func (e *Engine) Continue() error {
	if !e.state.Paused() {
		return ErrNotPaused
	}
	e.stepMode = false
	e.resume <- struct{}{}
	_, err := e.wait()
	return err
}

// Abort abandons the paused invocation: the host unwinds, the session
// transitions to finished, and the call stack is left at depth zero.
func (e *Engine) Abort() error {
	if !e.state.Paused() {
		return ErrNotPaused
	}
	e.abortReq = true
	e.stepMode = false
	e.resume <- struct{}{}
	_, err := e.wait()
	return err
}

// wait blocks until the dispatch goroutine either pauses or finishes.
func (e *Engine) wait() (host.Value, error) {
	ev := <-e.yield
	if !ev.done {
		return host.Void(), nil
	}
	e.inFlight = false
	if ev.err != nil {
		stack := e.state.CallStack().Frames()
		e.state.reset()
		if errors.Is(ev.err, ErrAborted) {
			log.Info(log.DbgMonitoring, "invocation aborted")
			return host.Void(), nil
		}
		log.Error(log.DbgMonitoring, "execution fault", "err", ev.err)
		return host.Void(), &ExecutionFault{Err: ev.err, Stack: stack}
	}
	e.lastResult = ev.result
	e.hasResult = true
	e.state.reset()
	log.Info(log.DbgMonitoring, "execution complete", "result", ev.result.String())
	return ev.result, nil
}

// pauseHere suspends the dispatch goroutine and hands control back to the
// engine's caller. It returns ErrAborted when the operator abandoned the
// invocation while it was parked.
func (e *Engine) pauseHere() error {
	e.state.setPaused(true)
	e.yield <- yieldEvent{}
	<-e.resume
	if e.abortReq {
		return ErrAborted
	}
	e.state.setPaused(false)
	return nil
}

// OnCallEnter implements host.TraceHook. It runs on the dispatch
// goroutine, strictly ordered with the other hook events.
func (e *Engine) OnCallEnter(fn string, args string) error {
	e.state.enterFrame(fn, args)
	if e.breaks.Contains(fn) {
		log.Info(log.DbgMonitoring, "breakpoint hit", "fn", fn, "depth", e.state.CallStack().Depth())
		return e.pauseHere()
	}
	if e.stepMode {
		e.stepMode = false
		return e.pauseHere()
	}
	return nil
}

// OnCallExit implements host.TraceHook.
func (e *Engine) OnCallExit(fn string) error {
	e.state.exitFrame()
	return nil
}

// OnInstruction implements host.TraceHook.
func (e *Engine) OnInstruction(fn string, pc int, op host.Opcode) error {
	log.Trace(log.DbgMonitoring, "instruction", "fn", fn, "pc", pc, "op", op.String())
	if e.stepMode {
		e.stepMode = false
		return e.pauseHere()
	}
	return nil
}

// IsPaused is a non-blocking read of the pause flag.
func (e *Engine) IsPaused() bool {
	return e.state.Paused()
}

// State exposes the execution state for read-only inspection.
func (e *Engine) State() *ExecutionState {
	return e.state
}

// Breakpoints exposes the registry for add/remove/list.
func (e *Engine) Breakpoints() *BreakpointRegistry {
	return e.breaks
}

// Host exposes the underlying execution host for the inspectors.
func (e *Engine) Host() *host.Host {
	return e.host
}

// LastResult returns the result of the most recent normally-completed
// invocation.
func (e *Engine) LastResult() (host.Value, bool) {
	return e.lastResult, e.hasResult
}
