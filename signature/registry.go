// Package signature holds the registry of known file signatures (magic
// numbers) and the immutable matching snapshots scans work against.
package signature

import (
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"sigscan/logger"
)

// DefaultLabel and DefaultSignature seed every registry built by NewRegistry.
const (
	DefaultLabel     = "exe"
	DefaultSignature = "4D5A"
)

// Entry is a single label -> signature pair.
type Entry struct {
	Label     string `json:"label" yaml:"label"`
	Signature string `json:"signature" yaml:"signature"`
}

// Registry maps labels to uppercase hexadecimal signatures. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewRegistry returns a registry seeded with the default "exe" -> "4D5A" entry.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.Register(DefaultLabel, DefaultSignature)
	return r
}

func NewEmptyRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

// Register inserts or overwrites the signature for label. It never fails:
// values that are not even-length hex are kept but can never match.
func (r *Registry) Register(label, signatureHex string) {
	value := Normalize(signatureHex)
	if !Valid(value) {
		logger.Warnf("Signature %q for %q is not valid hex and will never match", signatureHex, label)
	}
	r.mu.Lock()
	r.entries[label] = value
	r.mu.Unlock()
}

// Signatures returns the registered signature values, in no particular order.
func (r *Registry) Signatures() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values := make([]string, 0, len(r.entries))
	for _, v := range r.entries {
		values = append(values, v)
	}
	return values
}

// List returns a copy of the label -> signature mapping.
func (r *Registry) List() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Entries returns the registry contents sorted by label.
func (r *Registry) Entries() []Entry {
	list := r.List()
	entries := make([]Entry, 0, len(list))
	for label, sig := range list {
		entries = append(entries, Entry{Label: label, Signature: sig})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	return entries
}

func (r *Registry) Lookup(label string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sig, ok := r.entries[label]
	return sig, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot captures the current entries as an immutable Set.
func (r *Registry) Snapshot() *Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newSet(r.entries)
}

// Normalize strips whitespace and upper-cases a hex signature.
func Normalize(signatureHex string) string {
	return strings.ToUpper(strings.Join(strings.Fields(signatureHex), ""))
}

// Valid reports whether a normalized signature is non-empty, even-length hex.
func Valid(signatureHex string) bool {
	if signatureHex == "" || len(signatureHex)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(signatureHex)
	return err == nil
}
