// Package host embeds a compact stack-machine execution environment for
// contract images: named contracts with exported entry points, persistent
// key/value storage, CPU/memory budget metering, and a synchronous trace
// hook surface the debugger installs itself on.
package host

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/syndtr/goleveldb/leveldb"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/sorolabs/sdbg/log"
)

// MaxCallDepth bounds nested CALL/XCALL dispatch.
const MaxCallDepth = 64

// TraceHook receives entry, exit, and instruction events during dispatch.
// All callbacks run synchronously on the dispatching goroutine, in exact
// execution order; a callback may block to suspend dispatch. Returning an
// error unwinds the in-flight invocation with that error.
type TraceHook interface {
	// OnCallEnter fires before the first instruction of a function body.
	OnCallEnter(fn string, args string) error

	// OnCallExit fires after a function body returns normally. It does not
	// fire when the function faults; the fault unwinds with frames intact.
	OnCallExit(fn string) error

	// OnInstruction fires after the instruction at pc has completed, so a
	// suspended hook observes its effects. For CALL/XCALL the callee's own
	// entry/exit events fire first.
	OnInstruction(fn string, pc int, op Opcode) error
}

// Host owns the contract registry, persistent storage, and budget for a
// debug session. It is not safe for concurrent use; the debugger serializes
// access per its single-invocation contract.
type Host struct {
	primary   *Contract
	contracts map[string]*Contract       // by registered name
	addresses map[string]common.Address  // name -> address
	db        *leveldb.DB
	budget    *Budget
	hook      TraceHook
	depth     int
}

// NewHost creates a host with an in-memory storage backend and the given
// budget limits (0 = unmetered).
func NewHost(cpuLimit, memLimit uint64) (*Host, error) {
	db, err := leveldb.Open(ldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open storage backend: %w", err)
	}
	return &Host{
		contracts: make(map[string]*Contract),
		addresses: make(map[string]common.Address),
		db:        db,
		budget:    NewBudget(cpuLimit, memLimit),
	}, nil
}

// Close releases the storage backend.
func (h *Host) Close() error {
	return h.db.Close()
}

// ContractAddress derives the deterministic address a contract name
// registers at.
func ContractAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(name))[12:])
}

// RegisterContract decodes the image and registers it under name. The
// first registered contract becomes the primary invocation target.
func (h *Host) RegisterContract(name string, image []byte) (common.Address, error) {
	c, err := DecodeContract(name, image)
	if err != nil {
		return common.Address{}, err
	}
	addr := ContractAddress(name)
	h.contracts[name] = c
	h.addresses[name] = addr
	if h.primary == nil {
		h.primary = c
	}
	log.Debug(log.HostMonitoring, "contract registered", "name", name, "address", addr.Hex(), "functions", len(c.Functions))
	return addr, nil
}

// SetHook installs the trace hook consulted during dispatch. Passing nil
// removes it.
func (h *Host) SetHook(hook TraceHook) {
	h.hook = hook
}

// Budget returns the live budget; counters reflect consumption up to the
// most recent executed instruction.
func (h *Host) Budget() *Budget {
	return h.budget
}

// Invoke dispatches an exported function of the primary contract. Budget
// counters reset at the start of each invocation.
func (h *Host) Invoke(fn string, args []Value) (Value, error) {
	if h.primary == nil {
		return Void(), fmt.Errorf("no contract loaded")
	}
	h.budget.Reset()
	h.depth = 0
	return h.execFunction(h.primary, fn, args)
}

// Storage returns the persistent entries of the primary contract, rendered
// as display strings. The view is rebuilt on every call so it always
// reflects the state at or after the most recent pause.
func (h *Host) Storage() map[string]string {
	out := make(map[string]string)
	if h.primary == nil {
		return out
	}
	prefix := h.addresses[h.primary.Name].Bytes()
	iter := h.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := string(iter.Key()[len(prefix):])
		out[key] = string(iter.Value())
	}
	return out
}

func (h *Host) storageGet(c *Contract, key string) (string, bool) {
	v, err := h.db.Get(h.storageKey(c, key), nil)
	if err != nil {
		return "", false
	}
	return string(v), true
}

func (h *Host) storagePut(c *Contract, key, value string) error {
	return h.db.Put(h.storageKey(c, key), []byte(value), nil)
}

func (h *Host) storageKey(c *Contract, key string) []byte {
	addr := h.addresses[c.Name]
	return append(addr.Bytes(), []byte(key)...)
}
