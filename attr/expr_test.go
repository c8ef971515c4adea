package attr

import (
	"errors"
	"testing"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{
			name:  "arithmetic",
			input: "1 + 2 * 3",
			want:  NewInt(7),
		},
		{
			name:  "float math",
			input: "floor(3.7)",
			want:  NewFloat(3),
		},
		{
			name:  "boolean",
			input: "1 < 2 && 3 != 4",
			want:  NewBool(true),
		},
		{
			name:  "string concat",
			input: `"a" + "b"`,
			want:  NewText("ab"),
		},
		{
			name:  "string list",
			input: `["x", "y"]`,
			want:  NewComplex("x", "y"),
		},
		{
			name:  "empty source",
			input: "  ",
			want:  Empty(),
		},
		{
			name:  "nil result",
			input: "nil",
			want:  Empty(),
		},
		{
			name:  "list prefix",
			input: `list.prefix(":", "/usr/bin:/bin", "/opt/bin")`,
			want:  NewText("/opt/bin:/usr/bin:/bin"),
		},
		{
			name:  "list unique",
			input: `list.unique(":", "/bin:/usr/bin:/bin")`,
			want:  NewText("/bin:/usr/bin"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExpr(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseExprEnv(t *testing.T) {
	t.Setenv("RUNMD_EXPR_TEST", "from-env")

	got, err := parseExpr(`env("RUNMD_EXPR_TEST")`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if got.Str != "from-env" {
		t.Errorf("expected env value, got %q", got.Str)
	}
}

func TestParseExprErrors(t *testing.T) {
	if _, err := parseExpr("1 +"); !errors.Is(err, ErrExprCompile) {
		t.Errorf("expected compile error, got %v", err)
	}

	// A list with non-string members has no primitive mapping.
	if _, err := parseExpr("[1, 2]"); !errors.Is(err, ErrExprResult) {
		t.Errorf("expected result error, got %v", err)
	}
}

func TestRegistryParseExprKind(t *testing.T) {
	r := NewRegistry()

	got, err := r.Parse("expr", "2 ** 3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if got.Type != TypeFloat || got.Float[0] != 8 {
		t.Errorf("expected float 8, got %v", got)
	}
}
