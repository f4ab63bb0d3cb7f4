package debugger

import (
	"sort"
	"sync"
)

// BreakpointRegistry is the set of function names at which execution must
// suspend. Matching is exact string equality on the function name; a
// breakpoint fires on every invocation of the function, nested or not.
// Membership is consulted on every function entry, so the set is hashed.
type BreakpointRegistry struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func NewBreakpointRegistry() *BreakpointRegistry {
	return &BreakpointRegistry{set: make(map[string]struct{})}
}

// Add inserts a breakpoint. Adding an existing name is a no-op.
func (r *BreakpointRegistry) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set[name] = struct{}{}
}

// Remove deletes a breakpoint, reporting whether it was present. Absence
// is not an error.
func (r *BreakpointRegistry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.set[name]; !ok {
		return false
	}
	delete(r.set, name)
	return true
}

func (r *BreakpointRegistry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.set[name]
	return ok
}

// List returns the breakpoint names sorted for deterministic display.
func (r *BreakpointRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.set))
	for name := range r.set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
