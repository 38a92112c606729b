package signature

import (
	"sort"
	"strings"
)

// MinPrefixLen is the number of leading bytes a file must have before any
// signature can match it.
const MinPrefixLen = 2

// Match identifies the registry entry a file prefix matched.
type Match struct {
	Label     string `json:"label"`
	Signature string `json:"signature"`
}

// Set is an immutable view of a registry used for matching. Entries are
// ordered longest signature first, then by label, so Match is deterministic
// regardless of map iteration order.
type Set struct {
	entries   []Entry
	prefixLen int
}

func newSet(src map[string]string) *Set {
	s := &Set{prefixLen: MinPrefixLen}
	for label, sig := range src {
		if !Valid(sig) {
			continue
		}
		s.entries = append(s.entries, Entry{Label: label, Signature: sig})
		if n := len(sig) / 2; n > s.prefixLen {
			s.prefixLen = n
		}
	}
	sort.Slice(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if len(a.Signature) != len(b.Signature) {
			return len(a.Signature) > len(b.Signature)
		}
		return a.Label < b.Label
	})
	return s
}

// PrefixLen is the number of leading bytes a classifier should read.
func (s *Set) PrefixLen() int {
	if s == nil {
		return MinPrefixLen
	}
	return s.prefixLen
}

// Len is the number of matchable signatures.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Match compares an uppercase hex rendering of a file's leading bytes against
// every signature. Prefixes shorter than MinPrefixLen bytes never match.
func (s *Set) Match(prefixHex string) (Match, bool) {
	if s == nil || len(prefixHex) < MinPrefixLen*2 {
		return Match{}, false
	}
	for _, e := range s.entries {
		if strings.HasPrefix(prefixHex, e.Signature) {
			return Match{Label: e.Label, Signature: e.Signature}, true
		}
	}
	return Match{}, false
}
