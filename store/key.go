package store

import (
	"fmt"

	"github.com/ardnew/runmd/attr"
)

// Key addresses one resource slot: a 64-bit identity hash paired with the
// attribute type it is stored under. Keys are comparable and cheap to copy.
type Key struct {
	hash uint64
	tag  attr.Type
}

// KeyOf builds a key from an identity string. The hash is the same fnv64a
// used by the symbol interner, so a reference attribute can address either
// an interned symbol or a stored resource.
func KeyOf(ident string, tag attr.Type) Key {
	return Key{hash: attr.HashIdent(ident), tag: tag}
}

// KeyFromHash builds a key from an already-computed identity hash.
func KeyFromHash(hash uint64, tag attr.Type) Key {
	return Key{hash: hash, tag: tag}
}

// Hash returns the key's identity hash.
func (k Key) Hash() uint64 { return k.hash }

// Type returns the attribute type the key is bound to.
func (k Key) Type() attr.Type { return k.tag }

// Transmute returns a key with the same identity hash bound to a different
// type. The original key remains valid: slots are indexed by the pair, so
// readers of the original type are unaffected.
func (k Key) Transmute(tag attr.Type) Key {
	return Key{hash: k.hash, tag: tag}
}

// String renders the key as its hash and type tag.
func (k Key) String() string {
	return fmt.Sprintf("%016x/%s", k.hash, k.tag)
}
