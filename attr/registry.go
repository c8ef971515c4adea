package attr

import (
	"encoding/base64"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
)

// ParseFunc converts the raw value text following an attribute-type tag into
// a typed value.
type ParseFunc func(input string) (Value, error)

// kind binds a tag name to its parser and storage shape.
type kind struct {
	parse ParseFunc
	shape Shape
}

// Registry maps attribute-type tags (without the leading dot) to value
// parsers. The fixed primitive catalog is always present; custom kinds can
// be added with [Registry.Register] and must declare their storage shape
// since that choice determines wire encoding.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]kind
}

// NewRegistry returns a registry populated with the fixed primitive catalog.
func NewRegistry() *Registry {
	r := &Registry{kinds: make(map[string]kind)}

	fixed := map[string]kind{
		"empty":       {parse: parseEmpty, shape: ShapeInline},
		"map":         {parse: parseEmpty, shape: ShapeInline},
		"bool":        {parse: parseBool, shape: ShapeInline},
		"true":        {parse: parseLiteral(NewBool(true)), shape: ShapeInline},
		"enable":      {parse: parseLiteral(NewBool(true)), shape: ShapeInline},
		"false":       {parse: parseLiteral(NewBool(false)), shape: ShapeInline},
		"disable":     {parse: parseLiteral(NewBool(false)), shape: ShapeInline},
		"int":         {parse: parseInt, shape: ShapeInline},
		"int_pair":    {parse: parseIntPair, shape: ShapeInline},
		"int_range":   {parse: parseIntRange, shape: ShapeInline},
		"float":       {parse: parseFloat, shape: ShapeInline},
		"float_pair":  {parse: parseFloatPair, shape: ShapeInline},
		"float_range": {parse: parseFloatRange, shape: ShapeInline},
		"symbol":      {parse: parseSymbol, shape: ShapeInterned},
		"text":        {parse: parseText, shape: ShapeExtent},
		"bin":         {parse: parseBin, shape: ShapeExtent},
		"base64":      {parse: parseBin, shape: ShapeExtent},
		"complex":     {parse: parseComplex, shape: ShapeInterned},
		"reference":   {parse: parseReference, shape: ShapeInline},
	}
	for name, k := range fixed {
		r.kinds[name] = k
	}

	r.kinds["expr"] = kind{parse: parseExpr, shape: ShapeInline}

	return r
}

// Register adds a custom kind under the given tag name. Registering a name
// already present replaces the previous handler, which allows overriding the
// built-in catalog in a derived registry.
func (r *Registry) Register(name string, shape Shape, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.kinds[name] = kind{parse: fn, shape: shape}
}

// Parse interprets input according to the named tag. Unknown tags return
// [ErrUnknownType] carrying nearest-match suggestions.
func (r *Registry) Parse(tag, input string) (Value, error) {
	r.mu.RLock()
	k, ok := r.kinds[tag]
	r.mu.RUnlock()

	if !ok {
		return Value{}, ErrUnknownType.With(
			slog.String("tag", "."+tag),
			slog.String("suggest", strings.Join(r.suggest(tag), ", ")),
		)
	}

	return k.parse(input)
}

// Shape returns the declared storage shape for a tag.
func (r *Registry) Shape(tag string) (Shape, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kinds[tag]

	return k.shape, ok
}

// suggest ranks registered tag names by fuzzy similarity to the given name.
func (r *Registry) suggest(name string) []string {
	r.mu.RLock()

	known := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		known = append(known, k)
	}

	r.mu.RUnlock()

	sort.Strings(known)

	matches := fuzzy.Find(name, known)
	if len(matches) > 3 {
		matches = matches[:3]
	}

	suggest := make([]string, len(matches))
	for i, m := range matches {
		suggest[i] = "." + m.Str
	}

	return suggest
}

func parseEmpty(string) (Value, error) {
	return Empty(), nil
}

func parseLiteral(v Value) ParseFunc {
	return func(string) (Value, error) {
		return v, nil
	}
}

func parseBool(input string) (Value, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return Value{}, ErrInvalidValue.With(
			slog.String("tag", ".bool"),
			slog.String("input", input),
		).Wrap(err)
	}

	return NewBool(b), nil
}

func parseInt(input string) (Value, error) {
	vals, err := splitInts(input, 1)
	if err != nil {
		return Value{}, err
	}

	return NewInt(vals[0]), nil
}

func parseIntPair(input string) (Value, error) {
	vals, err := splitInts(input, 2)
	if err != nil {
		return Value{}, err
	}

	return NewIntPair(vals[0], vals[1]), nil
}

func parseIntRange(input string) (Value, error) {
	vals, err := splitInts(input, 3)
	if err != nil {
		return Value{}, err
	}

	return NewIntRange(vals[0], vals[1], vals[2]), nil
}

func parseFloat(input string) (Value, error) {
	vals, err := splitFloats(input, 1)
	if err != nil {
		return Value{}, err
	}

	return NewFloat(vals[0]), nil
}

func parseFloatPair(input string) (Value, error) {
	vals, err := splitFloats(input, 2)
	if err != nil {
		return Value{}, err
	}

	return NewFloatPair(vals[0], vals[1]), nil
}

func parseFloatRange(input string) (Value, error) {
	vals, err := splitFloats(input, 3)
	if err != nil {
		return Value{}, err
	}

	return NewFloatRange(vals[0], vals[1], vals[2]), nil
}

func parseSymbol(input string) (Value, error) {
	return NewSymbol(strings.TrimSpace(input)), nil
}

func parseText(input string) (Value, error) {
	return NewText(input), nil
}

func parseBin(input string) (Value, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input))
	if err != nil {
		return Value{}, ErrInvalidValue.With(
			slog.String("tag", ".bin"),
			slog.String("input", input),
		).Wrap(err)
	}

	return NewBin(data), nil
}

func parseComplex(input string) (Value, error) {
	return NewComplex(splitList(input)...), nil
}

func parseReference(input string) (Value, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(input), "&")

	key, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		// Not a literal hash; reference the identity by hashing it.
		return NewReference(HashIdent(trimmed)), nil
	}

	return NewReference(key), nil
}

// splitList splits a comma- or whitespace-delimited value list.
func splitList(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func splitInts(input string, n int) ([]int32, error) {
	parts := splitList(input)
	if len(parts) != n {
		return nil, ErrInvalidValue.With(
			slog.Int("want", n),
			slog.Int("got", len(parts)),
			slog.String("input", input),
		)
	}

	vals := make([]int32, n)

	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return nil, ErrInvalidValue.With(
				slog.String("input", p),
			).Wrap(err)
		}

		vals[i] = int32(v)
	}

	return vals, nil
}

func splitFloats(input string, n int) ([]float32, error) {
	parts := splitList(input)
	if len(parts) != n {
		return nil, ErrInvalidValue.With(
			slog.Int("want", n),
			slog.Int("got", len(parts)),
			slog.String("input", input),
		)
	}

	vals := make([]float32, n)

	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, ErrInvalidValue.With(
				slog.String("input", p),
			).Wrap(err)
		}

		vals[i] = float32(v)
	}

	return vals, nil
}
