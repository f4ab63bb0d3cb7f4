package host

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/sorolabs/sdbg/log"
)

// execFunction runs one exported function to completion on the calling
// goroutine. Nested CALL/XCALL dispatch recurses here, so the trace hook
// observes strict entry-before-exit ordering.
func (h *Host) execFunction(c *Contract, fn string, args []Value) (Value, error) {
	f, ok := c.Functions[fn]
	if !ok {
		return Void(), newFault(fn, 0, fmt.Errorf("%w: %s", ErrUnknownFunction, fn))
	}
	if len(args) != int(f.Arity) {
		return Void(), newFault(fn, 0, fmt.Errorf("%w: %s wants %d, got %d", ErrArity, fn, f.Arity, len(args)))
	}
	if h.depth >= MaxCallDepth {
		return Void(), newFault(fn, 0, ErrCallDepth)
	}
	h.depth++
	defer func() { h.depth-- }()

	if h.hook != nil {
		if err := h.hook.OnCallEnter(fn, FormatValues(args)); err != nil {
			return Void(), newFault(fn, 0, err)
		}
	}

	stack := make([]Value, 0, 8+len(args))
	stack = append(stack, args...)

	pop := func() (Value, bool) {
		if len(stack) == 0 {
			return Value{}, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}
	push := func(v Value) error {
		stack = append(stack, v)
		return h.budget.ChargeMem(v.size())
	}

	pc := 0
	for pc < len(f.Code) {
		op := Opcode(f.Code[pc])
		olen, wellFormed := operandLen(f.Code, pc, op)
		if !wellFormed {
			return Void(), newFault(fn, pc, fmt.Errorf("%w: truncated operands for %s", ErrBadImage, op))
		}
		if err := h.budget.ChargeCPU(opCost(op)); err != nil {
			return Void(), newFault(fn, pc, err)
		}

		switch op {
		case PUSH:
			imm := binary.LittleEndian.Uint64(f.Code[pc+1 : pc+9])
			if err := push(U64(imm)); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case PUSH_SYM:
			n := int(f.Code[pc+1])
			if err := push(Sym(string(f.Code[pc+2 : pc+2+n]))); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case ADD, SUB, MUL:
			b, okB := pop()
			a, okA := pop()
			if !okA || !okB {
				return Void(), newFault(fn, pc, ErrStackUnderflow)
			}
			if err := push(arith(op, a, b)); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case DUP:
			if len(stack) == 0 {
				return Void(), newFault(fn, pc, ErrStackUnderflow)
			}
			if err := push(stack[len(stack)-1]); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case POP:
			if _, popped := pop(); !popped {
				return Void(), newFault(fn, pc, ErrStackUnderflow)
			}

		case SLOAD:
			key, popped := pop()
			if !popped {
				return Void(), newFault(fn, pc, ErrStackUnderflow)
			}
			stored, found := h.storageGet(c, storageKeyString(key))
			var v Value
			if found {
				v = Sym(stored)
			} else {
				v = U64(0)
			}
			if err := push(v); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case SSTORE:
			val, okV := pop()
			key, okK := pop()
			if !okK || !okV {
				return Void(), newFault(fn, pc, ErrStackUnderflow)
			}
			ks := storageKeyString(key)
			if err := h.budget.ChargeMem(uint64(len(ks)) + val.size()); err != nil {
				return Void(), newFault(fn, pc, err)
			}
			if err := h.storagePut(c, ks, val.String()); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case LOG:
			v, popped := pop()
			if !popped {
				return Void(), newFault(fn, pc, ErrStackUnderflow)
			}
			log.Info(log.HostMonitoring, "contract log", "contract", c.Name, "fn", fn, "value", v.String())

		case CALL:
			n := int(f.Code[pc+1])
			callee := string(f.Code[pc+2 : pc+2+n])
			ret, err := h.dispatchCall(c, callee, &stack, fn, pc)
			if err != nil {
				return Void(), err
			}
			if err := push(ret); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case XCALL:
			n := int(f.Code[pc+1])
			target := string(f.Code[pc+2 : pc+2+n])
			m := int(f.Code[pc+2+n])
			callee := string(f.Code[pc+3+n : pc+3+n+m])
			c2, known := h.contracts[target]
			if !known {
				return Void(), newFault(fn, pc, fmt.Errorf("%w: %s", ErrUnknownContract, target))
			}
			ret, err := h.dispatchCall(c2, callee, &stack, fn, pc)
			if err != nil {
				return Void(), err
			}
			if err := push(ret); err != nil {
				return Void(), newFault(fn, pc, err)
			}

		case RET:
			ret := Void()
			if v, popped := pop(); popped {
				ret = v
			}
			if h.hook != nil {
				if err := h.hook.OnInstruction(fn, pc, op); err != nil {
					return Void(), newFault(fn, pc, err)
				}
				if err := h.hook.OnCallExit(fn); err != nil {
					return Void(), newFault(fn, pc, err)
				}
			}
			return ret, nil

		default:
			return Void(), newFault(fn, pc, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, byte(op)))
		}
		// the instruction event fires once the instruction at pc has
		// completed, so a suspended hook observes its effects
		if h.hook != nil {
			if err := h.hook.OnInstruction(fn, pc, op); err != nil {
				return Void(), newFault(fn, pc, err)
			}
		}
		pc += 1 + olen
	}

	// fell off the end of the body: implicit void return
	if h.hook != nil {
		if err := h.hook.OnCallExit(fn); err != nil {
			return Void(), newFault(fn, len(f.Code), err)
		}
	}
	return Void(), nil
}

// dispatchCall pops the callee's arguments off the caller's stack and
// recurses into the callee.
func (h *Host) dispatchCall(target *Contract, callee string, stack *[]Value, caller string, pc int) (Value, error) {
	cf, ok := target.Functions[callee]
	if !ok {
		return Void(), newFault(caller, pc, fmt.Errorf("%w: %s.%s", ErrUnknownFunction, target.Name, callee))
	}
	arity := int(cf.Arity)
	if len(*stack) < arity {
		return Void(), newFault(caller, pc, ErrStackUnderflow)
	}
	// pushed left to right, popped as a block
	args := make([]Value, arity)
	copy(args, (*stack)[len(*stack)-arity:])
	*stack = (*stack)[:len(*stack)-arity]
	return h.execFunction(target, callee, args)
}

// arith promotes to 128-bit math when either operand is wide; u64 math wraps.
func arith(op Opcode, a, b Value) Value {
	if a.Kind() == KindI128 || b.Kind() == KindI128 {
		x, y := a.AsI128(), b.AsI128()
		z := new(uint256.Int)
		switch op {
		case ADD:
			z.Add(x, y)
		case SUB:
			z.Sub(x, y)
		case MUL:
			z.Mul(x, y)
		}
		return I128(z)
	}
	x, y := a.AsU64(), b.AsU64()
	switch op {
	case ADD:
		return U64(x + y)
	case SUB:
		return U64(x - y)
	case MUL:
		return U64(x * y)
	}
	return Void()
}

// storageKeyString renders a popped key value as the flat key string the
// storage backend and the display view share.
func storageKeyString(v Value) string {
	if v.Kind() == KindSym {
		return v.AsSym()
	}
	return v.String()
}
