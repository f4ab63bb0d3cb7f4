package inspector

import (
	"sort"

	"github.com/sorolabs/sdbg/host"
)

// StorageInspector is a read-only view of the contract's persistent
// key/value entries. Every query re-reads the host, so the view always
// reflects the state at or after the most recent pause.
type StorageInspector struct {
	host *host.Host
}

func NewStorageInspector(h *host.Host) *StorageInspector {
	return &StorageInspector{host: h}
}

// GetAll returns the current entries as display strings.
func (si *StorageInspector) GetAll() map[string]string {
	return si.host.Storage()
}

// SortedKeys returns the entry keys in display order.
func (si *StorageInspector) SortedKeys() []string {
	entries := si.GetAll()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
