// Package lang implements the runmd language front-end: a line lexer and a
// parser state machine that turn fenced runmd sections embedded in markdown
// into a flat, ordered instruction stream.
//
// The parser stores no resource data itself; its sole product is the
// instruction stream, which downstream consumers (see package compile) use
// to materialize nodes, properties, and extensions. Parsing is best-effort
// across a document: lexical errors abort only the offending line, grammar
// errors abort only the enclosing block, and sibling blocks always continue.
package lang
