package fuzzy

import (
	"sort"
	"strings"
	"sync"
)

// Hasher defines a fuzzy hashing implementation.
type Hasher interface {
	Name() string
	HashFile(path string) (string, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Hasher{}
)

// Register adds a fuzzy hasher to the registry.
func Register(hasher Hasher) {
	if hasher == nil {
		return
	}
	mu.Lock()
	registry[strings.ToLower(hasher.Name())] = hasher
	mu.Unlock()
}

// Lookup returns a registered hasher by name.
func Lookup(name string) (Hasher, bool) {
	mu.RLock()
	defer mu.RUnlock()
	hasher, ok := registry[strings.ToLower(name)]
	return hasher, ok
}

// Available returns the sorted names of registered hashers.
func Available() []string {
	mu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	mu.RUnlock()
	sort.Strings(names)
	return names
}
