package host

import (
	"fmt"
	"math"
	"strings"

	"github.com/holiman/uint256"
)

// Kind tags a Value.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindU64
	KindI128
	KindSym
	KindBytes
	KindVec
)

// Value is the host's native argument and return representation: a small
// tagged union covering the types contract entry points exchange.
type Value struct {
	kind Kind
	b    bool
	u    uint64
	i    *uint256.Int
	s    string
	bs   []byte
	vec  []Value
}

func Void() Value              { return Value{kind: KindVoid} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func U64(u uint64) Value       { return Value{kind: KindU64, u: u} }
func Sym(s string) Value       { return Value{kind: KindSym, s: s} }
func Bytes(bs []byte) Value    { return Value{kind: KindBytes, bs: bs} }
func Vec(vs ...Value) Value    { return Value{kind: KindVec, vec: vs} }
func I128(i *uint256.Int) Value {
	return Value{kind: KindI128, i: i.Clone()}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() bool   { return v.b }
func (v Value) AsU64() uint64  { return v.u }
func (v Value) AsSym() string  { return v.s }
func (v Value) AsBytes() []byte { return v.bs }
func (v Value) AsVec() []Value { return v.vec }

// AsI128 returns the wide-integer payload, widening U64 values.
func (v Value) AsI128() *uint256.Int {
	if v.kind == KindU64 {
		return uint256.NewInt(v.u)
	}
	if v.i == nil {
		return uint256.NewInt(0)
	}
	return v.i.Clone()
}

// size is the memory-budget charge of holding the value on the operand stack.
func (v Value) size() uint64 {
	switch v.kind {
	case KindVoid, KindBool:
		return 1
	case KindU64:
		return 8
	case KindI128:
		return 16
	case KindSym:
		return uint64(len(v.s))
	case KindBytes:
		return uint64(len(v.bs))
	case KindVec:
		var n uint64
		for _, e := range v.vec {
			n += e.size()
		}
		return n
	}
	return 0
}

func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindU64:
		return fmt.Sprintf("%d", v.u)
	case KindI128:
		return v.AsI128().Dec()
	case KindSym:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("0x%x", v.bs)
	case KindVec:
		parts := make([]string, len(v.vec))
		for i, e := range v.vec {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "?"
}

// FormatValues renders an argument list the way call frames summarize it.
func FormatValues(vs []Value) string {
	if len(vs) == 0 {
		return ""
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// ValueFromJSON converts a decoded JSON value (the ui boundary
// representation) into the host's native representation. Integers that do
// not fit a float64's exact range arrive as strings and are parsed wide.
func ValueFromJSON(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Void(), nil
	case bool:
		return Bool(t), nil
	case float64:
		if t < 0 {
			return Value{}, fmt.Errorf("negative argument %v not representable", t)
		}
		if t != math.Trunc(t) {
			return Value{}, fmt.Errorf("fractional argument %v not representable", t)
		}
		if t >= 1<<64 {
			return Value{}, fmt.Errorf("argument %v exceeds the 64-bit range, pass it as a 0x string", t)
		}
		return U64(uint64(t)), nil
	case int64:
		if t < 0 {
			return Value{}, fmt.Errorf("negative argument %v not representable", t)
		}
		return U64(uint64(t)), nil
	case string:
		if strings.HasPrefix(t, "0x") {
			i, err := uint256.FromHex(t)
			if err != nil {
				return Value{}, fmt.Errorf("bad hex argument %q: %w", t, err)
			}
			return I128(i), nil
		}
		return Sym(t), nil
	case []interface{}:
		vec := make([]Value, 0, len(t))
		for _, e := range t {
			v, err := ValueFromJSON(e)
			if err != nil {
				return Value{}, err
			}
			vec = append(vec, v)
		}
		return Vec(vec...), nil
	}
	return Value{}, fmt.Errorf("unsupported argument type %T", x)
}

// ValuesFromJSON converts a decoded JSON array into an argument list.
func ValuesFromJSON(xs []interface{}) ([]Value, error) {
	vs := make([]Value, 0, len(xs))
	for _, x := range xs {
		v, err := ValueFromJSON(x)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}
