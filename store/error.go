package store

import "github.com/ardnew/runmd/pkg"

// Sentinel errors for resource access.
var (
	// ErrNotFound reports that no slot exists for the key's typed binding.
	// Each (identity, type) pair is an independent slot: other types bound
	// to the same identity do not satisfy a read.
	ErrNotFound = pkg.NewError("resource not found")
	// ErrTypeMismatch reports a write whose value type disagrees with the
	// key's binding. Values are never coerced across types.
	ErrTypeMismatch = pkg.NewError("resource type mismatch")
)
