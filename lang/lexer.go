package lang

import (
	"strings"
)

// Lex converts one line of source text into its tokens. The line number is
// used only for error positions. A nil token slice with a nil error means
// the line is blank.
//
// Lexing is stateless: block context (whether a fence opens or closes, what
// a dotted tag means) is decided by the parser.
func Lex(text string, lineNo int) ([]Token, error) {
	lx := &lineLexer{text: text, line: lineNo}

	return lx.run()
}

// lineLexer scans a single line. No state survives between lines.
type lineLexer struct {
	text string
	line int
	pos  int // byte offset into text
}

func (lx *lineLexer) run() ([]Token, error) {
	lx.skipSpace()

	if lx.eol() {
		return nil, nil
	}

	rest := lx.text[lx.pos:]

	switch {
	case strings.HasPrefix(rest, "```"):
		return lx.lexFence()

	case strings.HasPrefix(rest, "|"):
		lx.pos++

		tok := Token{
			Kind:   KindAppend,
			Column: lx.column(),
		}
		value := strings.TrimSpace(lx.text[lx.pos:])

		return []Token{tok, {Kind: KindValue, Text: value, Column: lx.column()}}, nil

	case strings.HasPrefix(rest, "<!--"),
		strings.HasPrefix(rest, "#"),
		strings.HasPrefix(rest, "//"),
		strings.HasPrefix(rest, "* "),
		strings.HasPrefix(rest, "- "),
		rest == "*", rest == "-":
		return []Token{{
			Kind:   KindComment,
			Text:   commentText(rest),
			Column: lx.column(),
		}}, nil

	case strings.HasPrefix(rest, "<.."):
		return lx.lexSuffixExtension()

	case strings.HasPrefix(rest, "<"):
		return lx.lexExtension()

	case strings.HasPrefix(rest, "+ "), rest == "+":
		lx.pos++

		return lx.lexAttribute(KindAdd, "")

	case strings.HasPrefix(rest, "add "):
		lx.pos += len("add")

		return lx.lexAttribute(KindAdd, "add")

	case strings.HasPrefix(rest, ": "), rest == ":":
		lx.pos++

		return lx.lexAttribute(KindDefine, "")

	case strings.HasPrefix(rest, "define "):
		lx.pos += len("define")

		return lx.lexAttribute(KindDefine, "define")

	default:
		// Prose inside or outside a block is documentation.
		return []Token{{
			Kind:   KindComment,
			Text:   strings.TrimSpace(rest),
			Column: lx.column(),
		}}, nil
	}
}

// lexFence scans a block fence and its 0-2 trailing identities.
// "```runmd" and "``` runmd" open, a bare "```" closes, and any other
// fence flavor ("```md", "```go", ...) is markdown scaffolding.
func (lx *lineLexer) lexFence() ([]Token, error) {
	col := lx.column()
	lx.pos += len("```")

	fields := strings.Fields(lx.text[lx.pos:])

	if len(fields) == 0 {
		return []Token{{Kind: KindFence, Column: col}}, nil
	}

	if fields[0] != "runmd" {
		return []Token{{
			Kind:   KindComment,
			Text:   strings.TrimSpace(lx.text[lx.pos:]),
			Column: col,
		}}, nil
	}

	tokens := []Token{{Kind: KindFence, Text: fields[0], Column: col}}

	for _, ident := range fields[1:] {
		if !ValidIdentity(ident) {
			return nil, lexErr(
				ErrInvalidIdentity,
				Position{Line: lx.line, Column: col},
				ident,
			)
		}

		tokens = append(tokens, Token{
			Kind:   KindIdentity,
			Text:   ident,
			Column: col,
		})
	}

	return tokens, nil
}

// lexExtension scans `<address> [value] [# comment]`.
func (lx *lineLexer) lexExtension() ([]Token, error) {
	col := lx.column()
	lx.pos++ // consume '<'

	end := strings.IndexByte(lx.text[lx.pos:], '>')
	if end < 0 {
		return nil, lexErr(
			ErrInvalidIdentity,
			Position{Line: lx.line, Column: col},
			lx.text[lx.pos:],
		)
	}

	addr := lx.text[lx.pos : lx.pos+end]
	lx.pos += end + 1

	if !ValidIdentity(addr) {
		return nil, lexErr(
			ErrInvalidIdentity,
			Position{Line: lx.line, Column: col},
			addr,
		)
	}

	tokens := []Token{{Kind: KindExtension, Text: addr, Column: col}}

	return lx.lexTrailing(tokens)
}

// lexSuffixExtension scans `<..suffix> [value] [# comment]`.
func (lx *lineLexer) lexSuffixExtension() ([]Token, error) {
	col := lx.column()
	lx.pos += len("<..")

	end := strings.IndexByte(lx.text[lx.pos:], '>')
	if end < 0 {
		return nil, lexErr(
			ErrInvalidIdentity,
			Position{Line: lx.line, Column: col},
			lx.text[lx.pos:],
		)
	}

	suffix := lx.text[lx.pos : lx.pos+end]
	lx.pos += end + 1

	if !ValidIdentity(suffix) {
		return nil, lexErr(
			ErrInvalidIdentity,
			Position{Line: lx.line, Column: col},
			suffix,
		)
	}

	tokens := []Token{{Kind: KindSuffixExtension, Text: suffix, Column: col}}

	return lx.lexTrailing(tokens)
}

// lexAttribute scans the tail of an add/define line:
// up to two bare identities, one dotted tag, then the value.
// The marker token's Text carries the keyword for word forms
// ("add", "define") and is empty for the `+`/`:` symbol forms.
func (lx *lineLexer) lexAttribute(marker Kind, form string) ([]Token, error) {
	tokens := []Token{{Kind: marker, Text: form, Column: lx.column()}}

	// Bare identities preceding the dotted tag.
	for range 2 {
		lx.skipSpace()

		if lx.eol() || lx.peek() == '.' || lx.peek() == '#' {
			break
		}

		col := lx.column()

		word := lx.scanWord()
		if !ValidIdentity(word) {
			return nil, lexErr(
				ErrInvalidIdentity,
				Position{Line: lx.line, Column: col},
				word,
			)
		}

		tokens = append(tokens, Token{
			Kind:   KindIdentity,
			Text:   word,
			Column: col,
		})
	}

	lx.skipSpace()

	// Dotted tag: attribute type or attribute name.
	if !lx.eol() && lx.peek() == '.' {
		col := lx.column()
		lx.pos++

		word := lx.scanWord()
		if !ValidIdentity(word) {
			return nil, lexErr(
				ErrInvalidIdentity,
				Position{Line: lx.line, Column: col},
				"."+word,
			)
		}

		tokens = append(tokens, Token{
			Kind:   KindTypeTag,
			Text:   word,
			Column: col,
		})
	}

	return lx.lexTrailing(tokens)
}

// lexTrailing scans the value text and optional trailing comment after the
// structural tokens of a line. Values may be single- or double-quoted, in
// which case the content is taken verbatim. Outside quotes, an unescaped
// ` #` starts a comment; a literal `#` is written doubled (`##`).
func (lx *lineLexer) lexTrailing(tokens []Token) ([]Token, error) {
	lx.skipSpace()

	if lx.eol() {
		return tokens, nil
	}

	col := lx.column()

	if q := lx.peek(); q == '\'' || q == '"' {
		value, err := lx.scanQuoted(q)
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, Token{
			Kind:   KindValue,
			Text:   value,
			Column: col,
		})

		lx.skipSpace()
	} else {
		var sb strings.Builder

		for !lx.eol() {
			c := lx.peek()

			if c == '#' {
				if lx.pos+1 < len(lx.text) && lx.text[lx.pos+1] == '#' {
					sb.WriteByte('#')
					lx.pos += 2

					continue
				}

				break
			}

			sb.WriteByte(c)
			lx.pos++
		}

		value := strings.TrimSpace(sb.String())
		if value != "" {
			tokens = append(tokens, Token{
				Kind:   KindValue,
				Text:   value,
				Column: col,
			})
		}
	}

	// Trailing comment.
	if !lx.eol() && lx.peek() == '#' {
		text := strings.TrimSpace(strings.TrimLeft(lx.text[lx.pos:], "# "))
		tokens = append(tokens, Token{
			Kind:   KindComment,
			Text:   text,
			Column: lx.column(),
		})
		lx.pos = len(lx.text)
	}

	return tokens, nil
}

// commentText strips the recognized introducer (and, for HTML comments,
// the terminator) from a documentation line, preserving the body verbatim.
func commentText(rest string) string {
	switch {
	case strings.HasPrefix(rest, "<!--"):
		rest = strings.TrimSuffix(strings.TrimPrefix(rest, "<!--"), "-->")
	case strings.HasPrefix(rest, "//"):
		rest = rest[2:]
	case strings.HasPrefix(rest, "#"):
		rest = strings.TrimLeft(rest, "#")
	case strings.HasPrefix(rest, "*"):
		rest = rest[1:]
	case strings.HasPrefix(rest, "-"):
		rest = rest[1:]
	}

	return strings.TrimSpace(rest)
}

// scanQuoted consumes a quoted string, returning its content.
func (lx *lineLexer) scanQuoted(quote byte) (string, error) {
	col := lx.column()
	lx.pos++ // opening quote

	end := strings.IndexByte(lx.text[lx.pos:], quote)
	if end < 0 {
		return "", lexErr(
			ErrUnterminatedQuote,
			Position{Line: lx.line, Column: col},
			lx.text[lx.pos:],
		)
	}

	value := lx.text[lx.pos : lx.pos+end]
	lx.pos += end + 1

	return value, nil
}

// scanWord consumes a run of non-space bytes.
func (lx *lineLexer) scanWord() string {
	start := lx.pos

	for !lx.eol() && lx.peek() != ' ' && lx.peek() != '\t' {
		lx.pos++
	}

	return lx.text[start:lx.pos]
}

func (lx *lineLexer) skipSpace() {
	for !lx.eol() && (lx.peek() == ' ' || lx.peek() == '\t') {
		lx.pos++
	}
}

func (lx *lineLexer) peek() byte { return lx.text[lx.pos] }

func (lx *lineLexer) eol() bool { return lx.pos >= len(lx.text) }

func (lx *lineLexer) column() int { return lx.pos + 1 }
