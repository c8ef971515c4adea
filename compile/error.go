package compile

import "github.com/ardnew/runmd/pkg"

// Sentinel errors for resource compilation.
var (
	// ErrExtensionLoad reports a failed extension load. The owning node is
	// excluded from completion; sibling nodes are unaffected.
	ErrExtensionLoad = pkg.NewError("extension load failed")
	// ErrValue reports a value that failed to parse under its declared
	// attribute type.
	ErrValue = pkg.NewError("invalid attribute value")
	// ErrProvider reports a node provider that rejected a completed node.
	ErrProvider = pkg.NewError("node provider rejected node")
)
