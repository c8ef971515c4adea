package attr

import "github.com/ardnew/runmd/pkg"

// Sentinel errors for attribute value parsing.
var (
	ErrUnknownType  = pkg.NewError("unknown attribute type")
	ErrInvalidValue = pkg.NewError("invalid attribute value")
	ErrExprCompile  = pkg.NewError("expression compilation failed")
	ErrExprEvaluate = pkg.NewError("expression evaluation failed")
	ErrExprResult   = pkg.NewError("unsupported expression result type")
)
