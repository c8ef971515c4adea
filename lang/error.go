package lang

import (
	"log/slog"

	"github.com/ardnew/runmd/pkg"
)

// Sentinel errors for lexing and parsing.
var (
	// ErrLex reports a malformed token. It aborts only the offending line.
	ErrLex = pkg.NewError("lex error")
	// ErrGrammar reports a structurally invalid line, such as a property
	// with no enclosing node. It aborts the current block.
	ErrGrammar = pkg.NewError("grammar error")

	ErrInvalidIdentity   = pkg.NewError("invalid identity")
	ErrNoEnclosingNode   = pkg.NewError("no enclosing node")
	ErrNoPriorExtension  = pkg.NewError("no prior extension for suffix")
	ErrUnterminatedQuote = pkg.NewError("unterminated quote")
	ErrUnclosedBlock     = pkg.NewError("unclosed block at end of document")
	ErrStrayInstruction  = pkg.NewError("instruction outside block")
)

// Position locates a token within the source document.
type Position struct {
	Line   int // 1-based source line
	Column int // 1-based column of the offending token
}

// attrs converts the position to slog attributes for error annotation.
func (p Position) attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("line", p.Line),
		slog.Int("column", p.Column),
	}
}

// lexErr builds an ErrLex derivative annotated with position and line text.
func lexErr(base *pkg.Error, pos Position, text string) *pkg.Error {
	return ErrLex.Wrap(
		base.With(append(pos.attrs(), slog.String("text", text))...),
	)
}

// grammarErr builds an ErrGrammar derivative annotated with position.
func grammarErr(base *pkg.Error, pos Position) *pkg.Error {
	return ErrGrammar.Wrap(base.With(pos.attrs()...))
}
