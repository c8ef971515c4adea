package attr

import (
	"slices"
	"testing"
)

func TestValueEqual(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		a, b Value
		want bool
	}{
		{"empty", Empty(), Empty(), true},
		{"type mismatch", NewInt(1), NewFloat(1), false},
		{"bool", NewBool(true), NewBool(true), true},
		{"int", NewInt(7), NewInt(7), true},
		{"int differs", NewInt(7), NewInt(8), false},
		{"int pair", NewIntPair(1, 2), NewIntPair(1, 2), true},
		{"pair vs range", NewIntPair(1, 2), NewIntRange(1, 2, 0), false},
		{"float range", NewFloatRange(0, 0.5, 1), NewFloatRange(0, 0.5, 1), true},
		{"symbol", NewSymbol("a.b"), NewSymbol("a.b"), true},
		{"symbol vs text", NewSymbol("x"), NewText("x"), false},
		{"bin", NewBin([]byte{1, 2}), NewBin([]byte{1, 2}), true},
		{"bin differs", NewBin([]byte{1}), NewBin([]byte{2}), false},
		{"complex", NewComplex("a", "b"), NewComplex("a", "b"), true},
		{"complex order", NewComplex("a", "b"), NewComplex("b", "a"), false},
		{"reference", NewReference(42), NewReference(42), true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		v    Value
		want string
	}{
		{Empty(), ""},
		{NewBool(false), "false"},
		{NewInt(-3), "-3"},
		{NewIntRange(0, 5, 10), "0, 5, 10"},
		{NewFloatPair(0.5, 1.5), "0.5, 1.5"},
		{NewText("hello world"), "hello world"},
		{NewBin([]byte{1, 2, 3}), "(3 bytes)"},
		{NewComplex("read", "write"), "read, write"},
		{NewReference(0xAB), "&00000000000000ab"},
	} {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.v.Type, got, tt.want)
		}
	}
}

func TestValueNative(t *testing.T) {
	t.Parallel()

	if got := Empty().Native(); got != nil {
		t.Errorf("Empty().Native() = %v, want nil", got)
	}

	if got := NewInt(9).Native(); got != int32(9) {
		t.Errorf("NewInt(9).Native() = %v, want 9", got)
	}

	got, ok := NewIntPair(1, 2).Native().([]int32)
	if !ok || !slices.Equal(got, []int32{1, 2}) {
		t.Errorf("NewIntPair(1, 2).Native() = %v, want [1 2]", got)
	}

	v := NewComplex("a", "b")

	set, ok := v.Native().([]string)
	if !ok || !slices.Equal(set, []string{"a", "b"}) {
		t.Errorf("NewComplex(a, b).Native() = %v, want [a b]", set)
	}

	// Native must not alias the value's backing set.
	set[0] = "mutated"

	if v.Set[0] != "a" {
		t.Error("Native() aliased the complex set")
	}

	if got := NewReference(0xFF).Native(); got != "00000000000000ff" {
		t.Errorf("NewReference(0xFF).Native() = %v", got)
	}
}

func TestNewComplexDedup(t *testing.T) {
	t.Parallel()

	v := NewComplex("a", "", "b", "a", "c", "b")
	if !slices.Equal(v.Set, []string{"a", "b", "c"}) {
		t.Errorf("NewComplex dedup = %v, want [a b c]", v.Set)
	}
}

func TestTypeShape(t *testing.T) {
	t.Parallel()

	for ty, want := range map[Type]Shape{
		TypeEmpty:     ShapeInline,
		TypeBool:      ShapeInline,
		TypeIntRange:  ShapeInline,
		TypeFloat:     ShapeInline,
		TypeReference: ShapeInline,
		TypeSymbol:    ShapeInterned,
		TypeComplex:   ShapeInterned,
		TypeText:      ShapeExtent,
		TypeBin:       ShapeExtent,
	} {
		if got := ty.Shape(); got != want {
			t.Errorf("%v.Shape() = %v, want %v", ty, got, want)
		}
	}
}

func TestTypeValid(t *testing.T) {
	t.Parallel()

	if Type(0x08).Valid() {
		t.Error("Type(0x08) reported valid")
	}

	if !TypeReference.Valid() {
		t.Error("TypeReference reported invalid")
	}

	if got := Type(0x42).String(); got != ".unknown(0x42)" {
		t.Errorf("Type(0x42).String() = %q", got)
	}
}
