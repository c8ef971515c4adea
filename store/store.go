package store

import (
	"log/slog"
	"sync"

	"github.com/ardnew/runmd/attr"
)

// slots maps identity hashes to their per-type values. Each identity holds
// at most one value per attribute type.
type slots map[uint64]map[attr.Type]attr.Value

func (s slots) put(k Key, v attr.Value) {
	byType, ok := s[k.hash]
	if !ok {
		byType = make(map[attr.Type]attr.Value, 1)
		s[k.hash] = byType
	}

	byType[k.tag] = v
}

func (s slots) get(k Key) (attr.Value, error) {
	byType, ok := s[k.hash]
	if !ok {
		return attr.Empty(), ErrNotFound.With(slog.String("key", k.String()))
	}

	v, ok := byType[k.tag]
	if !ok {
		// Other types bound to the same identity never satisfy a read;
		// the typed slot itself is absent.
		return attr.Empty(), ErrNotFound.With(
			slog.String("key", k.String()),
		)
	}

	return v, nil
}

func (s slots) del(k Key) {
	byType, ok := s[k.hash]
	if !ok {
		return
	}

	delete(byType, k.tag)

	if len(byType) == 0 {
		delete(s, k.hash)
	}
}

func (s slots) each(fn func(Key, attr.Value) bool) {
	for hash, byType := range s {
		for tag, v := range byType {
			if !fn(Key{hash: hash, tag: tag}, v) {
				return
			}
		}
	}
}

// Host is the process-wide scope. It is safe for concurrent use; writes to
// the same key are last-write-wins.
type Host struct {
	mu sync.RWMutex
	s  slots
}

// NewHost creates an empty host scope.
func NewHost() *Host {
	return &Host{s: make(slots)}
}

// Put stores a value under the key, replacing any previous value of the
// same type. The value's type must match the key's binding.
func (h *Host) Put(k Key, v attr.Value) error {
	if v.Type != k.tag {
		return ErrTypeMismatch.With(
			slog.String("key", k.String()),
			slog.String("value", v.Type.String()),
		)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.s.put(k, v)

	return nil
}

// Get reads the value stored under the key's typed binding. An absent
// binding is ErrNotFound even when the identity holds values of other
// types.
func (h *Host) Get(k Key) (attr.Value, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.s.get(k)
}

// Delete removes the key's slot. Other types bound to the same identity
// are untouched.
func (h *Host) Delete(k Key) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.s.del(k)
}

// Each calls fn for every slot until fn returns false. The scope is locked
// for reading during the walk; fn must not call back into the scope.
func (h *Host) Each(fn func(Key, attr.Value) bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.s.each(fn)
}

// Node is the scope owned by a single node family. The compiler creates one
// per node and accesses it from one goroutine, so it carries no lock.
type Node struct {
	s slots
}

// NewNode creates an empty node scope.
func NewNode() *Node {
	return &Node{s: make(slots)}
}

// Put stores a value under the key. The value's type must match the key's
// binding.
func (n *Node) Put(k Key, v attr.Value) error {
	if v.Type != k.tag {
		return ErrTypeMismatch.With(
			slog.String("key", k.String()),
			slog.String("value", v.Type.String()),
		)
	}

	n.s.put(k, v)

	return nil
}

// Get reads the value stored under the key.
func (n *Node) Get(k Key) (attr.Value, error) { return n.s.get(k) }

// Delete removes the key's slot.
func (n *Node) Delete(k Key) { n.s.del(k) }

// Each calls fn for every slot until fn returns false.
func (n *Node) Each(fn func(Key, attr.Value) bool) { n.s.each(fn) }

// Transient is the scope for one evaluation pass. Reset discards all slots
// so the scope can be reused for the next pass.
type Transient struct {
	s slots
}

// NewTransient creates an empty transient scope.
func NewTransient() *Transient {
	return &Transient{s: make(slots)}
}

// Put stores a value under the key. The value's type must match the key's
// binding.
func (t *Transient) Put(k Key, v attr.Value) error {
	if v.Type != k.tag {
		return ErrTypeMismatch.With(
			slog.String("key", k.String()),
			slog.String("value", v.Type.String()),
		)
	}

	t.s.put(k, v)

	return nil
}

// Get reads the value stored under the key.
func (t *Transient) Get(k Key) (attr.Value, error) { return t.s.get(k) }

// Delete removes the key's slot.
func (t *Transient) Delete(k Key) { t.s.del(k) }

// Reset discards every slot in the scope.
func (t *Transient) Reset() {
	clear(t.s)
}
