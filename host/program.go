package host

import (
	"encoding/binary"
	"fmt"
)

// Opcode is a single-byte contract instruction.
type Opcode byte

const (
	PUSH     Opcode = 0x01 // push u64 immediate (8-byte LE operand)
	PUSH_SYM Opcode = 0x02 // push symbol (u8 length + bytes)
	ADD      Opcode = 0x10
	SUB      Opcode = 0x11
	MUL      Opcode = 0x12
	DUP      Opcode = 0x13
	POP      Opcode = 0x14
	SLOAD    Opcode = 0x20 // pop key, push stored value
	SSTORE   Opcode = 0x21 // pop value, pop key, store
	LOG      Opcode = 0x22 // pop value, emit host log
	CALL     Opcode = 0x30 // invoke exported function (u8 length + name)
	XCALL    Opcode = 0x31 // invoke function of another contract (u8+name, u8+fn)
	RET      Opcode = 0x3f // return top of stack (void if empty)
)

var opcodeNames = map[Opcode]string{
	PUSH:     "PUSH",
	PUSH_SYM: "PUSH_SYM",
	ADD:      "ADD",
	SUB:      "SUB",
	MUL:      "MUL",
	DUP:      "DUP",
	POP:      "POP",
	SLOAD:    "SLOAD",
	SSTORE:   "SSTORE",
	LOG:      "LOG",
	CALL:     "CALL",
	XCALL:    "XCALL",
	RET:      "RET",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%02x", byte(op))
}

// opCosts holds the CPU-instruction charge per opcode. Opcodes not listed
// charge the default of 1.
var opCosts = map[Opcode]uint64{
	SLOAD:  10,
	SSTORE: 10,
	CALL:   5,
	XCALL:  5,
	LOG:    2,
}

func opCost(op Opcode) uint64 {
	if c, ok := opCosts[op]; ok {
		return c
	}
	return 1
}

// Function is one exported contract entry point.
type Function struct {
	Name  string
	Arity uint8
	Code  []byte
}

// Contract is a decoded contract image.
type Contract struct {
	Name      string
	Functions map[string]*Function
}

const (
	imageMagic   = "SDBG"
	imageVersion = 1
)

// EncodeContract serializes a contract to the image wire format:
// magic, version, function count, then per function the name
// (u8 length-prefixed), arity byte, and code (u32 LE length-prefixed).
func EncodeContract(c *Contract) []byte {
	out := make([]byte, 0, 64)
	out = append(out, imageMagic...)
	out = append(out, imageVersion)
	out = append(out, byte(len(c.Functions)))
	// deterministic image bytes for a given contract
	for _, name := range sortedFunctionNames(c) {
		fn := c.Functions[name]
		out = append(out, byte(len(fn.Name)))
		out = append(out, fn.Name...)
		out = append(out, fn.Arity)
		var clen [4]byte
		binary.LittleEndian.PutUint32(clen[:], uint32(len(fn.Code)))
		out = append(out, clen[:]...)
		out = append(out, fn.Code...)
	}
	return out
}

// DecodeContract parses a contract image.
func DecodeContract(name string, image []byte) (*Contract, error) {
	if len(image) < len(imageMagic)+2 || string(image[:4]) != imageMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadImage)
	}
	if image[4] != imageVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadImage, image[4])
	}
	count := int(image[5])
	p := image[6:]

	c := &Contract{Name: name, Functions: make(map[string]*Function, count)}
	for i := 0; i < count; i++ {
		if len(p) < 1 {
			return nil, fmt.Errorf("%w: truncated function table", ErrBadImage)
		}
		nlen := int(p[0])
		p = p[1:]
		if len(p) < nlen+1+4 {
			return nil, fmt.Errorf("%w: truncated function entry", ErrBadImage)
		}
		fname := string(p[:nlen])
		arity := p[nlen]
		clen := int(binary.LittleEndian.Uint32(p[nlen+1 : nlen+5]))
		p = p[nlen+5:]
		if len(p) < clen {
			return nil, fmt.Errorf("%w: truncated code for %s", ErrBadImage, fname)
		}
		c.Functions[fname] = &Function{Name: fname, Arity: arity, Code: p[:clen]}
		p = p[clen:]
	}
	return c, nil
}

func sortedFunctionNames(c *Contract) []string {
	names := make([]string, 0, len(c.Functions))
	for name := range c.Functions {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}

// operandLen returns the byte length of the operands following op at code[pc+1:].
// The second return is false when the encoding is truncated.
func operandLen(code []byte, pc int, op Opcode) (int, bool) {
	switch op {
	case PUSH:
		return 8, pc+8 < len(code)
	case PUSH_SYM, CALL:
		if pc+1 >= len(code) {
			return 0, false
		}
		n := int(code[pc+1])
		return 1 + n, pc+1+n < len(code)
	case XCALL:
		if pc+1 >= len(code) {
			return 0, false
		}
		n := int(code[pc+1])
		if pc+2+n >= len(code) {
			return 0, false
		}
		m := int(code[pc+1+n+1])
		return 2 + n + m, pc+2+n+m < len(code)
	default:
		return 0, true
	}
}
