package lang

import (
	"context"
	"testing"
	"unicode/utf8"
)

// FuzzLex tests single-line lexing with random inputs to find edge cases.
func FuzzLex(f *testing.F) {
	f.Add("+ .os linux")
	f.Add(": .name .symbol value")
	f.Add("define loader path .text /usr/bin")
	f.Add("<application/example.process>")
	f.Add("<..settings>")
	f.Add("| continued text")
	f.Add("+ .note \"quoted value\" # trailing comment")
	f.Add("+ .label issue ##42")
	f.Add("```runmd app example")
	f.Add("```")
	f.Add("plain documentation line")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("lexer panicked on %q: %v", input, r)
			}
		}()

		tokens, err := Lex(input, 1)
		if err != nil {
			return
		}

		for i, tok := range tokens {
			if tok.Kind < KindAdd || tok.Kind > KindAppend {
				t.Errorf("token %d has invalid kind %d on input %q", i, tok.Kind, input)
			}
		}
	})
}

// FuzzParseString tests whole-document parsing with random inputs.
func FuzzParseString(f *testing.F) {
	f.Add("```runmd\n+ .example\n: .property Hello World\n```\n")
	f.Add("```runmd app example\n+ .os linux\n<application/example.process>\n```\n")
	f.Add("```runmd\n+ .note one\n| two\n```\n")
	f.Add("```runmd control\ndefine owner name .int 42\n```\n")
	f.Add("no fences at all\n")
	f.Add("```runmd\nunclosed block\n")
	f.Add("```runmd\n<..orphan>\n```\n")
	f.Add("``` not runmd\n+ .ignored\n```\n")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("parser panicked on %q: %v", input, r)
			}
		}()

		doc, err := ParseString(context.Background(), input)
		if err != nil {
			return
		}

		if doc == nil {
			t.Fatalf("nil document without error on %q", input)
		}

		for i, err := range doc.Errors {
			if err == nil {
				t.Errorf("document error %d is nil on %q", i, input)
			}
		}
	})
}
