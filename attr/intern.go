package attr

import (
	"hash/fnv"
	"strings"
	"sync"
)

// The process-wide intern table. Symbols, complex members, and identity
// hashes all share one table so a reference value can point at any of them.
// Initialized on first use, never torn down, safe for concurrent insertion
// from multiple parse tasks.
//
//nolint:gochecknoglobals
var (
	internOnce sync.Once
	internTab  *internTable
)

type internTable struct {
	mu      sync.RWMutex
	strings map[uint64]string
	sets    map[uint64][]string
}

func interner() *internTable {
	internOnce.Do(func() {
		internTab = &internTable{
			strings: make(map[uint64]string),
			sets:    make(map[uint64][]string),
		}
	})

	return internTab
}

// HashIdent returns the 64-bit fnv-1a hash of s. Equal strings always map to
// equal keys; the empty string maps to key 0.
func HashIdent(s string) uint64 {
	if s == "" {
		return 0
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return h.Sum64()
}

// Intern stores s in the process-wide table and returns its key.
func Intern(s string) uint64 {
	key := HashIdent(s)
	if key == 0 {
		return 0
	}

	tab := interner()

	tab.mu.Lock()
	tab.strings[key] = s
	tab.mu.Unlock()

	return key
}

// Lookup resolves an intern key back to its string.
func Lookup(key uint64) (string, bool) {
	if key == 0 {
		return "", true
	}

	tab := interner()

	tab.mu.RLock()
	s, ok := tab.strings[key]
	tab.mu.RUnlock()

	return s, ok
}

// InternSet stores an ordered unique string set and returns its key. The key
// is derived from the ordered membership, so decode reproduces the exact
// declaration order.
func InternSet(members []string) uint64 {
	if len(members) == 0 {
		return 0
	}

	key := HashIdent(strings.Join(members, "\x00"))

	tab := interner()

	tab.mu.Lock()
	if _, ok := tab.sets[key]; !ok {
		stored := make([]string, len(members))
		copy(stored, members)
		tab.sets[key] = stored
	}
	tab.mu.Unlock()

	return key
}

// LookupSet resolves a set key back to its ordered membership.
func LookupSet(key uint64) ([]string, bool) {
	if key == 0 {
		return nil, true
	}

	tab := interner()

	tab.mu.RLock()
	set, ok := tab.sets[key]
	tab.mu.RUnlock()

	return set, ok
}
