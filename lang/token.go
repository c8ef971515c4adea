package lang

import "regexp"

// Kind discriminates the syntactic tokens produced by the lexer.
type Kind int

const (
	// KindAdd is the stable-attribute marker `+` or keyword `add`.
	KindAdd Kind = iota
	// KindDefine is the transient-attribute marker `:` or keyword `define`.
	KindDefine
	// KindExtension is an extension address marker `<addr>`.
	KindExtension
	// KindSuffixExtension is a suffix-append marker `<..suffix>`.
	KindSuffixExtension
	// KindFence is a block fence, opening (with 0-2 identities) or closing.
	KindFence
	// KindComment is a documentation line or trailing comment.
	KindComment
	// KindTypeTag is an attribute-type tag such as `.symbol`.
	KindTypeTag
	// KindIdentity is a bare identity used as a name, tag, or address part.
	KindIdentity
	// KindValue is the raw value text trailing a line.
	KindValue
	// KindAppend is the continuation marker `|`.
	KindAppend
)

// String names the token kind for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindDefine:
		return "define"
	case KindExtension:
		return "extension"
	case KindSuffixExtension:
		return "suffix-extension"
	case KindFence:
		return "fence"
	case KindComment:
		return "comment"
	case KindTypeTag:
		return "type-tag"
	case KindIdentity:
		return "identity"
	case KindValue:
		return "value"
	case KindAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Token is one syntactic unit of a source line. Tokens are transient: they
// are produced and consumed within one line's processing.
type Token struct {
	Kind   Kind
	Text   string
	Column int // 1-based column where the token begins
}

// identityPattern is the grammar for identities: names, property keys, and
// extension address fragments.
var identityPattern = regexp.MustCompile(`^[./A-Za-z]+[A-Za-z\-._:=/#0-9]*$`)

// ValidIdentity reports whether s satisfies the identity grammar.
func ValidIdentity(s string) bool {
	return s != "" && identityPattern.MatchString(s)
}
