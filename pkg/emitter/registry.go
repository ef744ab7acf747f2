package emitter

import (
	"sort"
	"strings"
	"sync"
)

var (
	emittersMu sync.RWMutex
	emitters   = make(map[string]Emitter)
)

// Get returns an emitter by platform code.
func Get(name string) (Emitter, bool) {
	emittersMu.RLock()
	defer emittersMu.RUnlock()
	e, ok := emitters[strings.ToLower(name)]
	return e, ok
}

// Register registers an emitter in the global registry.
// Called by emitter implementations in their init() functions.
func Register(e Emitter) {
	emittersMu.Lock()
	defer emittersMu.Unlock()
	emitters[strings.ToLower(e.Name())] = e
}

// List returns all registered platform codes (sorted).
func List() []string {
	emittersMu.RLock()
	defer emittersMu.RUnlock()
	names := make([]string, 0, len(emitters))
	for name := range emitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
