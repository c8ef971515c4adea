package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSource = "```runmd app example\n" +
	"+ .example\n" +
	": count .int 42\n" +
	"```\n"

func writeSource(t *testing.T, source string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.md")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestReadSource(t *testing.T) {
	t.Parallel()

	path := writeSource(t, testSource)

	data, err := readSource(path)
	if err != nil {
		t.Fatalf("readSource: %v", err)
	}

	if string(data) != testSource {
		t.Errorf("readSource = %q, want %q", data, testSource)
	}

	if _, err := readSource(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("readSource succeeded on missing file")
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	doc, err := parseSource(context.Background(), writeSource(t, testSource))
	if err != nil {
		t.Fatalf("parseSource: %v", err)
	}

	if len(doc.Blocks) != 1 {
		t.Fatalf("parsed %d blocks, want 1", len(doc.Blocks))
	}
}

func TestParseSourceNoBlocks(t *testing.T) {
	t.Parallel()

	// A grammar error drops the only block, leaving nothing parsed.
	source := "```runmd\n<..orphan>\n```\n"

	_, err := parseSource(context.Background(), writeSource(t, source))
	if !errors.Is(err, ErrNoBlocks) {
		t.Errorf("parseSource error = %v, want ErrNoBlocks", err)
	}
}

func TestCompileSourceAndViews(t *testing.T) {
	t.Parallel()

	res, err := compileSource(context.Background(), writeSource(t, testSource))
	if err != nil {
		t.Fatalf("compileSource: %v", err)
	}

	view := viewBlocks(res.Blocks)
	if len(view.Blocks) != 1 {
		t.Fatalf("viewed %d blocks, want 1", len(view.Blocks))
	}

	node := view.Blocks[0].Nodes[0]
	if node.Name != "example" {
		t.Errorf("node name = %q, want example", node.Name)
	}

	prop := node.Properties[0]
	if prop.Type != ".int" || prop.Value != int32(42) {
		t.Errorf("property = %+v, want .int 42", prop)
	}

	var buf bytes.Buffer
	if err := writeYAML(context.Background(), &buf, view, 2); err != nil {
		t.Fatalf("writeYAML: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"kind:", "example", "count", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}
