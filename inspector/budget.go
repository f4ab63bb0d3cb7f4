// Package inspector provides read-only views over the execution host for
// display: resource budget consumption and contract persistent storage.
package inspector

import (
	"github.com/sorolabs/sdbg/host"
)

// BudgetInfo is an immutable snapshot of the host's resource counters,
// derived fresh on every query.
type BudgetInfo struct {
	CPUInstructions uint64
	CPULimit        uint64
	MemoryBytes     uint64
	MemoryLimit     uint64
}

// GetCPUUsage reads the instruction and memory counters from the host.
// Pure read, no side effects.
func GetCPUUsage(h *host.Host) BudgetInfo {
	b := h.Budget()
	return BudgetInfo{
		CPUInstructions: b.CPUInstructionsConsumed(),
		CPULimit:        b.CPUInstructionsLimit(),
		MemoryBytes:     b.MemoryBytesConsumed(),
		MemoryLimit:     b.MemoryBytesLimit(),
	}
}

// CPUPercentage is consumed/limit*100, or 0.0 when the limit is zero
// (unmetered is a degenerate case, not an error).
func (b BudgetInfo) CPUPercentage() float64 {
	if b.CPULimit == 0 {
		return 0.0
	}
	return float64(b.CPUInstructions) / float64(b.CPULimit) * 100.0
}

func (b BudgetInfo) MemoryPercentage() float64 {
	if b.MemoryLimit == 0 {
		return 0.0
	}
	return float64(b.MemoryBytes) / float64(b.MemoryLimit) * 100.0
}
