package lang

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/runmd/attr"
	"github.com/ardnew/runmd/log"
	"github.com/ardnew/runmd/pkg"
)

// Option configures a parse.
type Option func(*parser)

// WithLogger sets the logger used for parse tracing.
func WithLogger(l log.Logger) Option {
	return func(p *parser) { p.logger = l }
}

// WithRegistry sets the attribute type registry consulted to decide whether
// a dotted tag names a value type or an attribute. Defaults to the fixed
// primitive catalog.
func WithRegistry(r *attr.Registry) Option {
	return func(p *parser) { p.registry = r }
}

// ParseReader parses a runmd document from an io.Reader.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pkg.WrapError(err)
	}

	return ParseString(ctx, string(data), opts...)
}

// ParseString parses a runmd document from a string. The returned Document
// holds every block that parsed cleanly alongside the errors collected from
// blocks that did not; the error return is reserved for total failures.
func ParseString(
	ctx context.Context,
	source string,
	opts ...Option,
) (*Document, error) {
	p := &parser{
		registry: attr.NewRegistry(),
		doc:      &Document{},
	}

	for _, opt := range opts {
		opt(p)
	}

	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		p.line(ctx, lineNo, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, pkg.WrapError(err)
	}

	if p.block != nil {
		p.fail(grammarErr(ErrUnclosedBlock, Position{Line: lineNo}))
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("blocks", len(p.doc.Blocks)),
		slog.Int("errors", len(p.doc.Errors)),
	)

	return p.doc, nil
}

// state enumerates the parser's position within a document.
type state int

const (
	stateIdle state = iota
	stateInBlock
	stateInNode
	stateInExtension
)

// parser is the line-by-line interpreter state machine.
type parser struct {
	registry *attr.Registry
	logger   log.Logger
	doc      *Document

	state state
	block *Block // block under construction, nil when idle
	root  string // name of the node owning subsequent properties
	ext   string // address of the extension owning subsequent properties
	skip  bool   // true while discarding an aborted block
}

// line processes one source line.
func (p *parser) line(ctx context.Context, lineNo int, text string) {
	tokens, err := Lex(text, lineNo)
	if err != nil {
		// A lex error aborts only the offending line.
		p.doc.Errors = append(p.doc.Errors, err)
		p.logger.DebugContext(ctx, "line skipped", slog.Any("error", err))

		return
	}

	if len(tokens) == 0 {
		return
	}

	head := tokens[0]

	// While recovering from a grammar error, consume everything up to the
	// closing fence so sibling blocks still parse.
	if p.skip {
		if head.Kind == KindFence && head.Text == "" {
			p.skip = false
			p.state = stateIdle
			p.block = nil
		}

		return
	}

	switch head.Kind {
	case KindFence:
		p.fence(tokens, lineNo)

	case KindComment:
		p.comment(head.Text)

	case KindAppend:
		p.appendValue(tokens)

	case KindAdd:
		p.addNode(tokens, lineNo)

	case KindDefine:
		p.defineProperty(tokens, lineNo)

	case KindExtension:
		p.loadExtension(tokens, lineNo, false)

	case KindSuffixExtension:
		p.loadExtension(tokens, lineNo, true)

	default:
		// Identity/TypeTag/Value never begin a line.
		p.fail(grammarErr(ErrStrayInstruction, Position{Line: lineNo}))
	}
}

func (p *parser) fence(tokens []Token, lineNo int) {
	head := tokens[0]

	if head.Text == "runmd" {
		if p.block != nil {
			// An opener inside an open block implies the previous block
			// never closed.
			p.fail(grammarErr(ErrUnclosedBlock, Position{Line: lineNo}))

			return
		}

		idents := make([]string, 0, len(tokens)-1)
		for _, t := range tokens[1:] {
			idents = append(idents, t.Text)
		}

		p.block = &Block{
			Idents: idents,
			Pos:    Position{Line: lineNo, Column: head.Column},
		}
		p.emit(Instruction{
			Op:     OpBeginBlock,
			Idents: idents,
			Pos:    p.block.Pos,
		})
		p.state = stateInBlock
		p.root = ""
		p.ext = ""

		return
	}

	// Closing fence.
	if p.block == nil {
		return // markdown scaffolding outside any block
	}

	p.emit(Instruction{Op: OpEndBlock, Pos: Position{Line: lineNo}})
	p.doc.Blocks = append(p.doc.Blocks, p.block)
	p.block = nil
	p.state = stateIdle
	p.root = ""
	p.ext = ""
}

// comment attaches documentation text to the instruction most recently
// emitted in the current block. Text outside any block is discarded.
func (p *parser) comment(text string) {
	if p.block == nil || len(p.block.Instructions) == 0 || text == "" {
		return
	}

	last := &p.block.Instructions[len(p.block.Instructions)-1]
	last.Doc = append(last.Doc, text)
}

// appendValue joins a continuation line onto the previous instruction's
// value.
func (p *parser) appendValue(tokens []Token) {
	if p.block == nil || len(p.block.Instructions) == 0 {
		return
	}

	var text string

	for _, t := range tokens[1:] {
		if t.Kind == KindValue {
			text = t.Text
		}
	}

	last := &p.block.Instructions[len(p.block.Instructions)-1]

	switch last.Op {
	case OpAddNode, OpDefineProperty, OpLoadExtension:
		if last.Value == "" {
			last.Value = text
		} else {
			last.Value += "\n" + text
		}
	default:
	}
}

func (p *parser) addNode(tokens []Token, lineNo int) {
	if p.state == stateIdle {
		p.fail(grammarErr(ErrStrayInstruction, Position{Line: lineNo}))

		return
	}

	in, err := p.attribute(tokens, lineNo)
	if err != nil {
		p.fail(err)

		return
	}

	in.Op = OpAddNode

	if in.Name == "" {
		p.fail(grammarErr(ErrInvalidIdentity, in.Pos))

		return
	}

	p.emit(in)
	p.state = stateInNode
	p.root = in.Name
	p.ext = ""
}

func (p *parser) defineProperty(tokens []Token, lineNo int) {
	if p.state != stateInNode && p.state != stateInExtension {
		p.fail(grammarErr(ErrNoEnclosingNode, Position{Line: lineNo}))

		return
	}

	in, err := p.attribute(tokens, lineNo)
	if err != nil {
		p.fail(err)

		return
	}

	in.Op = OpDefineProperty

	// The fully-qualified `define` form names its owner explicitly; the `:`
	// form prefixes the property with the enclosing owner's path.
	if in.Owner == "" {
		if p.state == stateInExtension {
			in.Owner = p.ext
		} else {
			in.Owner = p.root
		}
	}

	if in.Name == "" {
		p.fail(grammarErr(ErrInvalidIdentity, in.Pos))

		return
	}

	p.emit(in)
}

func (p *parser) loadExtension(tokens []Token, lineNo int, suffix bool) {
	if p.state != stateInNode && p.state != stateInExtension {
		p.fail(grammarErr(ErrNoEnclosingNode, Position{Line: lineNo}))

		return
	}

	head := tokens[0]
	addr := head.Text

	if suffix {
		if p.ext == "" {
			p.fail(grammarErr(
				ErrNoPriorExtension,
				Position{Line: lineNo, Column: head.Column},
			))

			return
		}

		addr = suffixAddress(p.ext, head.Text)
	}

	in := Instruction{
		Op:   OpLoadExtension,
		Name: addr,
		Pos:  Position{Line: lineNo, Column: head.Column},
	}

	for _, t := range tokens[1:] {
		switch t.Kind {
		case KindValue:
			in.Value = t.Text
		case KindComment:
			if t.Text != "" {
				in.Doc = append(in.Doc, t.Text)
			}
		default:
		}
	}

	p.emit(in)
	p.state = stateInExtension
	p.ext = addr
}

// attribute assembles the common fields of an add/define line from its
// tokens. The dotted tag is an attribute type when the registry knows it,
// and the attribute's name otherwise.
func (p *parser) attribute(tokens []Token, lineNo int) (Instruction, error) {
	head := tokens[0]
	in := Instruction{Pos: Position{Line: lineNo, Column: head.Column}}

	var (
		idents  []string
		typeTag string
	)

	for _, t := range tokens[1:] {
		switch t.Kind {
		case KindIdentity:
			idents = append(idents, t.Text)
		case KindTypeTag:
			typeTag = t.Text
		case KindValue:
			in.Value = t.Text
		case KindComment:
			if t.Text != "" {
				in.Doc = append(in.Doc, t.Text)
			}
		default:
		}
	}

	if typeTag == "" {
		return in, grammarErr(ErrInvalidIdentity, in.Pos)
	}

	if _, known := p.registry.Shape(typeTag); known {
		// Typed form: `add message .text hello world`.
		in.TypeTag = typeTag

		switch len(idents) {
		case 1:
			in.Name = idents[0]
		case 2:
			// Fully-qualified define: owner then name.
			if head.Text == "define" {
				in.Owner = idents[0]
				in.Name = idents[1]
			} else {
				in.Tag = idents[0]
				in.Name = idents[1]
			}
		default:
			return in, grammarErr(ErrInvalidIdentity, in.Pos)
		}

		return in, nil
	}

	// Named form: `+ [tag] .name value`.
	in.Name = typeTag

	switch len(idents) {
	case 0:
	case 1:
		in.Tag = idents[0]
	default:
		if head.Text == "define" {
			in.Owner = idents[0]
			in.Tag = idents[1]
		} else {
			return in, grammarErr(ErrInvalidIdentity, in.Pos)
		}
	}

	return in, nil
}

// emit appends an instruction to the block under construction.
func (p *parser) emit(in Instruction) {
	if p.block == nil {
		return
	}

	p.block.Instructions = append(p.block.Instructions, in)
}

// fail records an error and, for grammar errors, discards the current block
// and skips to its closing fence.
func (p *parser) fail(err error) {
	p.doc.Errors = append(p.doc.Errors, err)

	if p.block != nil {
		p.block = nil
		p.skip = true
	}

	p.state = stateIdle
	p.root = ""
	p.ext = ""
}

// suffixAddress resolves a suffix-append against the previous extension's
// address: the last dotted segment of the address is replaced with the
// suffix, so `app/example.ext` + `other` yields `app/example.other`.
func suffixAddress(prev, suffix string) string {
	if idx := strings.LastIndexByte(prev, '.'); idx >= 0 {
		return prev[:idx+1] + suffix
	}

	return prev + "." + suffix
}
