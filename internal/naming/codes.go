package naming

import (
	"fmt"
	"sync"
)

// CodeRegistry is the single source of truth for 2-letter table codes within
// one compilation run. It is injected, never ambient: each run gets a fresh
// registry seeded from the snapshot, keeping runs isolated and testable.
// Codes are never reassignable, even for soft-deleted tables.
type CodeRegistry struct {
	mu    sync.RWMutex
	codes map[string]string // code -> table ID
}

// NewCodeRegistry creates an empty registry.
func NewCodeRegistry() *CodeRegistry {
	return &CodeRegistry{codes: make(map[string]string)}
}

// Claim records a code for a table. Claiming an already-claimed code for a
// different table is an error; re-claiming for the same table is a no-op.
func (r *CodeRegistry) Claim(code, tableID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.codes[code]; ok {
		if owner == tableID {
			return nil
		}
		return fmt.Errorf("code %q already claimed by table %s", code, owner)
	}
	r.codes[code] = tableID
	return nil
}

// Owner returns the table ID holding a code.
func (r *CodeRegistry) Owner(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	return id, ok
}

// Len returns the number of claimed codes.
func (r *CodeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}
