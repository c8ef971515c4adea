package attr

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Type identifies the storage type of an attribute value. The numeric values
// double as the wire type tags and must not be reordered.
type Type uint8

const (
	TypeEmpty      Type = 0x00
	TypeBool       Type = 0x01
	TypeInt        Type = 0x02
	TypeIntPair    Type = 0x03
	TypeIntRange   Type = 0x04
	TypeFloat      Type = 0x05
	TypeFloatPair  Type = 0x06
	TypeFloatRange Type = 0x07
	TypeSymbol     Type = 0x09
	TypeText       Type = 0x0A
	TypeBin        Type = 0x0B
	TypeComplex    Type = 0x0C
	TypeReference  Type = 0x0D
)

// Shape describes how a value type is stored on the wire.
type Shape int

const (
	// ShapeInline values fit within the 16-byte value cell of a frame.
	ShapeInline Shape = iota
	// ShapeInterned values store a 64-bit intern key in the value cell.
	ShapeInterned
	// ShapeExtent values store a length and offset into a blob device.
	ShapeExtent
)

// String returns the canonical dot-tag for the type.
func (t Type) String() string {
	switch t {
	case TypeEmpty:
		return ".empty"
	case TypeBool:
		return ".bool"
	case TypeInt:
		return ".int"
	case TypeIntPair:
		return ".int_pair"
	case TypeIntRange:
		return ".int_range"
	case TypeFloat:
		return ".float"
	case TypeFloatPair:
		return ".float_pair"
	case TypeFloatRange:
		return ".float_range"
	case TypeSymbol:
		return ".symbol"
	case TypeText:
		return ".text"
	case TypeBin:
		return ".bin"
	case TypeComplex:
		return ".complex"
	case TypeReference:
		return ".reference"
	default:
		return fmt.Sprintf(".unknown(%#02x)", uint8(t))
	}
}

// Valid reports whether t is a member of the fixed catalog.
func (t Type) Valid() bool {
	switch t {
	case TypeEmpty, TypeBool, TypeInt, TypeIntPair, TypeIntRange,
		TypeFloat, TypeFloatPair, TypeFloatRange,
		TypeSymbol, TypeText, TypeBin, TypeComplex, TypeReference:
		return true
	default:
		return false
	}
}

// Shape returns the wire storage shape for the type.
func (t Type) Shape() Shape {
	switch t {
	case TypeSymbol, TypeComplex:
		return ShapeInterned
	case TypeText, TypeBin:
		return ShapeExtent
	default:
		return ShapeInline
	}
}

// Value is one typed attribute value. Exactly the fields implied by Type are
// meaningful; the rest are zero.
type Value struct {
	Type  Type
	Bool  bool
	Int   [3]int32   // int, int_pair, int_range
	Float [3]float32 // float, float_pair, float_range
	Str   string     // symbol, text
	Bin   []byte     // bin
	Set   []string   // complex: ordered unique interned strings
	Ref   uint64     // reference: 64-bit hash of another attribute
}

// Empty returns the empty value.
func Empty() Value { return Value{Type: TypeEmpty} }

// Bool returns a bool value.
func NewBool(b bool) Value { return Value{Type: TypeBool, Bool: b} }

// NewInt returns an int value.
func NewInt(v int32) Value { return Value{Type: TypeInt, Int: [3]int32{v}} }

// NewIntPair returns an int_pair value.
func NewIntPair(a, b int32) Value {
	return Value{Type: TypeIntPair, Int: [3]int32{a, b}}
}

// NewIntRange returns an int_range value.
func NewIntRange(a, b, c int32) Value {
	return Value{Type: TypeIntRange, Int: [3]int32{a, b, c}}
}

// NewFloat returns a float value.
func NewFloat(v float32) Value {
	return Value{Type: TypeFloat, Float: [3]float32{v}}
}

// NewFloatPair returns a float_pair value.
func NewFloatPair(a, b float32) Value {
	return Value{Type: TypeFloatPair, Float: [3]float32{a, b}}
}

// NewFloatRange returns a float_range value.
func NewFloatRange(a, b, c float32) Value {
	return Value{Type: TypeFloatRange, Float: [3]float32{a, b, c}}
}

// NewSymbol returns a symbol value, interning s as a side effect.
func NewSymbol(s string) Value {
	Intern(s)

	return Value{Type: TypeSymbol, Str: s}
}

// NewText returns a text value.
func NewText(s string) Value { return Value{Type: TypeText, Str: s} }

// NewBin returns a bin value.
func NewBin(b []byte) Value { return Value{Type: TypeBin, Bin: b} }

// NewComplex returns a complex value: an ordered unique set of strings.
// Duplicates are dropped, first occurrence wins, and every member is
// interned.
func NewComplex(members ...string) Value {
	set := make([]string, 0, len(members))

	for _, m := range members {
		if m == "" || slices.Contains(set, m) {
			continue
		}

		Intern(m)
		set = append(set, m)
	}

	return Value{Type: TypeComplex, Set: set}
}

// NewReference returns a reference value holding the 64-bit hash of another
// attribute's address.
func NewReference(key uint64) Value {
	return Value{Type: TypeReference, Ref: key}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}

	switch v.Type {
	case TypeEmpty:
		return true
	case TypeBool:
		return v.Bool == other.Bool
	case TypeInt, TypeIntPair, TypeIntRange:
		return v.Int == other.Int
	case TypeFloat, TypeFloatPair, TypeFloatRange:
		return v.Float == other.Float
	case TypeSymbol, TypeText:
		return v.Str == other.Str
	case TypeBin:
		return bytes.Equal(v.Bin, other.Bin)
	case TypeComplex:
		return slices.Equal(v.Set, other.Set)
	case TypeReference:
		return v.Ref == other.Ref
	default:
		return false
	}
}

// String renders the value as it would appear in runmd source.
func (v Value) String() string {
	switch v.Type {
	case TypeEmpty:
		return ""
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeInt:
		return formatInts(v.Int[:1])
	case TypeIntPair:
		return formatInts(v.Int[:2])
	case TypeIntRange:
		return formatInts(v.Int[:3])
	case TypeFloat:
		return formatFloats(v.Float[:1])
	case TypeFloatPair:
		return formatFloats(v.Float[:2])
	case TypeFloatRange:
		return formatFloats(v.Float[:3])
	case TypeSymbol, TypeText:
		return v.Str
	case TypeBin:
		return fmt.Sprintf("(%d bytes)", len(v.Bin))
	case TypeComplex:
		return strings.Join(v.Set, ", ")
	case TypeReference:
		return fmt.Sprintf("&%016x", v.Ref)
	default:
		return v.Type.String()
	}
}

// Native converts the value to a plain Go representation suitable for
// YAML/JSON marshaling.
func (v Value) Native() any {
	switch v.Type {
	case TypeEmpty:
		return nil
	case TypeBool:
		return v.Bool
	case TypeInt:
		return v.Int[0]
	case TypeIntPair:
		return []int32{v.Int[0], v.Int[1]}
	case TypeIntRange:
		return []int32{v.Int[0], v.Int[1], v.Int[2]}
	case TypeFloat:
		return v.Float[0]
	case TypeFloatPair:
		return []float32{v.Float[0], v.Float[1]}
	case TypeFloatRange:
		return []float32{v.Float[0], v.Float[1], v.Float[2]}
	case TypeSymbol, TypeText:
		return v.Str
	case TypeBin:
		return v.Bin
	case TypeComplex:
		return slices.Clone(v.Set)
	case TypeReference:
		return fmt.Sprintf("%016x", v.Ref)
	default:
		return nil
	}
}

func formatInts(vals []int32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}

	return strings.Join(parts, ", ")
}

func formatFloats(vals []float32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}

	return strings.Join(parts, ", ")
}
