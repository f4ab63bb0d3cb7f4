package host

import "encoding/binary"

// Asm builds the code section of one function.
type Asm struct {
	code []byte
}

func NewAsm() *Asm {
	return &Asm{}
}

func (a *Asm) Push(imm uint64) *Asm {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], imm)
	a.code = append(a.code, byte(PUSH))
	a.code = append(a.code, b[:]...)
	return a
}

func (a *Asm) PushSym(s string) *Asm {
	a.code = append(a.code, byte(PUSH_SYM), byte(len(s)))
	a.code = append(a.code, s...)
	return a
}

// Op appends an operand-free opcode.
func (a *Asm) Op(op Opcode) *Asm {
	a.code = append(a.code, byte(op))
	return a
}

func (a *Asm) Call(fn string) *Asm {
	a.code = append(a.code, byte(CALL), byte(len(fn)))
	a.code = append(a.code, fn...)
	return a
}

func (a *Asm) XCall(contract, fn string) *Asm {
	a.code = append(a.code, byte(XCALL), byte(len(contract)))
	a.code = append(a.code, contract...)
	a.code = append(a.code, byte(len(fn)))
	a.code = append(a.code, fn...)
	return a
}

func (a *Asm) Ret() *Asm {
	return a.Op(RET)
}

func (a *Asm) Bytes() []byte {
	return a.code
}

// ContractBuilder assembles a contract image function by function.
type ContractBuilder struct {
	c *Contract
}

func NewContractBuilder(name string) *ContractBuilder {
	return &ContractBuilder{c: &Contract{Name: name, Functions: make(map[string]*Function)}}
}

func (b *ContractBuilder) Func(name string, arity uint8, body *Asm) *ContractBuilder {
	b.c.Functions[name] = &Function{Name: name, Arity: arity, Code: body.Bytes()}
	return b
}

func (b *ContractBuilder) Build() *Contract {
	return b.c
}

// Image serializes the built contract to the image wire format.
func (b *ContractBuilder) Image() []byte {
	return EncodeContract(b.c)
}
