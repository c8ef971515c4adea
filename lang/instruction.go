package lang

import (
	"fmt"
	"strings"
)

// Op enumerates the normalized actions emitted by the parser.
type Op int

const (
	// OpBeginBlock opens a fenced section; Idents carries 0-2 identities.
	OpBeginBlock Op = iota
	// OpEndBlock closes the current fenced section.
	OpEndBlock
	// OpAddNode materializes a stable attribute as a new node.
	OpAddNode
	// OpDefineProperty attaches a transient attribute to the active owner.
	OpDefineProperty
	// OpLoadExtension loads an extension for the active node.
	OpLoadExtension
	// OpDoc carries documentation text with no semantic effect.
	OpDoc
)

// String names the op for diagnostics.
func (o Op) String() string {
	switch o {
	case OpBeginBlock:
		return "begin-block"
	case OpEndBlock:
		return "end-block"
	case OpAddNode:
		return "add-node"
	case OpDefineProperty:
		return "define-property"
	case OpLoadExtension:
		return "load-extension"
	case OpDoc:
		return "doc"
	default:
		return "unknown"
	}
}

// Instruction is one normalized action. The full parse of one fenced block
// is a flat ordered sequence of instructions; this sequence is the contract
// consumed by the resource compiler and by external providers.
type Instruction struct {
	Op Op
	// Name is the node name, property name, or extension address.
	Name string
	// Owner is the owner path for OpDefineProperty: the enclosing root's
	// name, or the owning extension's address.
	Owner string
	// Tag is the optional leading tag identity. Extensions never carry one.
	Tag string
	// TypeTag is the registered attribute-type tag governing Value, without
	// its leading dot. Empty means the type is inferred from the value text.
	TypeTag string
	// Value is the raw value text. Continuation lines are joined with \n.
	Value string
	// Doc accumulates documentation lines attached to this instruction.
	Doc []string
	// Idents carries the fence identities for OpBeginBlock.
	Idents []string
	// Pos locates the line that produced this instruction.
	Pos Position
}

// String renders the instruction in a compact single-line form.
func (in Instruction) String() string {
	switch in.Op {
	case OpBeginBlock:
		return strings.TrimSpace("begin " + strings.Join(in.Idents, " "))
	case OpEndBlock:
		return "end"
	case OpAddNode:
		return fmt.Sprintf("add %s %q", in.Name, in.Value)
	case OpDefineProperty:
		return fmt.Sprintf("define %s.%s %q", in.Owner, in.Name, in.Value)
	case OpLoadExtension:
		return fmt.Sprintf("load <%s> %q", in.Name, in.Value)
	case OpDoc:
		return fmt.Sprintf("doc %q", strings.Join(in.Doc, " "))
	default:
		return in.Op.String()
	}
}

// BlockKind classifies a fenced section by its identifier count.
type BlockKind int

const (
	// KindRootBlock has no identifiers and always receives entity id 0.
	KindRootBlock BlockKind = iota
	// KindControlBlock has one identifier; its values are inherited by
	// named blocks whose trailing identifier matches.
	KindControlBlock
	// KindNamedBlock has two identifiers: a name and a control symbol.
	KindNamedBlock
)

// String names the block kind.
func (k BlockKind) String() string {
	switch k {
	case KindRootBlock:
		return "root"
	case KindControlBlock:
		return "control"
	case KindNamedBlock:
		return "named"
	default:
		return "unknown"
	}
}

// Block is the parse result of one fenced section: its identities and the
// flat instruction stream bracketed by OpBeginBlock/OpEndBlock.
type Block struct {
	Idents       []string
	Instructions []Instruction
	Pos          Position
}

// Kind classifies the block by identifier count.
func (b *Block) Kind() BlockKind {
	switch len(b.Idents) {
	case 0:
		return KindRootBlock
	case 1:
		return KindControlBlock
	default:
		return KindNamedBlock
	}
}

// Name returns the block's first identifier, or "" for a root block.
func (b *Block) Name() string {
	if len(b.Idents) > 0 {
		return b.Idents[0]
	}

	return ""
}

// ControlSymbol returns the identifier that binds this block to a control
// block: the sole identifier of a control block, or the trailing identifier
// of a named block.
func (b *Block) ControlSymbol() string {
	switch b.Kind() {
	case KindControlBlock:
		return b.Idents[0]
	case KindNamedBlock:
		return b.Idents[1]
	default:
		return ""
	}
}

// Document is the best-effort parse of one source document: every block
// that parsed cleanly, plus the errors from blocks and lines that did not.
type Document struct {
	Blocks []*Block
	Errors []error
}
