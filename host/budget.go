package host

// Budget meters CPU instructions and memory bytes against configured
// limits. A limit of 0 means the dimension is unmetered.
type Budget struct {
	cpuConsumed uint64
	cpuLimit    uint64
	memConsumed uint64
	memLimit    uint64
}

func NewBudget(cpuLimit, memLimit uint64) *Budget {
	return &Budget{cpuLimit: cpuLimit, memLimit: memLimit}
}

func (b *Budget) CPUInstructionsConsumed() uint64 { return b.cpuConsumed }
func (b *Budget) CPUInstructionsLimit() uint64    { return b.cpuLimit }
func (b *Budget) MemoryBytesConsumed() uint64     { return b.memConsumed }
func (b *Budget) MemoryBytesLimit() uint64        { return b.memLimit }

// ChargeCPU adds n instructions to the consumed counter.
func (b *Budget) ChargeCPU(n uint64) error {
	b.cpuConsumed += n
	if b.cpuLimit != 0 && b.cpuConsumed > b.cpuLimit {
		return ErrCPUBudgetExceeded
	}
	return nil
}

// ChargeMem adds n bytes to the consumed counter.
func (b *Budget) ChargeMem(n uint64) error {
	b.memConsumed += n
	if b.memLimit != 0 && b.memConsumed > b.memLimit {
		return ErrMemBudgetExceeded
	}
	return nil
}

// Reset clears the consumed counters, keeping the limits. The host resets
// the budget at the start of every fresh invocation.
func (b *Budget) Reset() {
	b.cpuConsumed = 0
	b.memConsumed = 0
}
