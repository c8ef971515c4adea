package wire

import "github.com/ardnew/runmd/pkg"

// Sentinel errors for frame coding.
var (
	// ErrCodec reports an unrecoverable frame sequence. Decoding never
	// yields a partial block.
	ErrCodec = pkg.NewError("codec error")

	ErrUnknownOp     = pkg.NewError("unknown frame op")
	ErrUnknownType   = pkg.NewError("unknown type tag")
	ErrMissingSymbol = pkg.NewError("missing interner entry")
	ErrTruncated     = pkg.NewError("truncated control data")
	ErrBadExtent     = pkg.NewError("extent outside blob device")
	ErrStrayFrame    = pkg.NewError("frame outside block delimiters")
	ErrFrameAligned  = pkg.NewError("data is not frame aligned")
)
