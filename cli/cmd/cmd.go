package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/runmd/compile"
	"github.com/ardnew/runmd/lang"
	"github.com/ardnew/runmd/log"
	"github.com/ardnew/runmd/pkg"
)

// Sentinel errors shared by the subcommands.
var (
	ErrNoBlocks = pkg.NewError("no blocks parsed")
	ErrYAML     = pkg.NewError("marshal YAML")
)

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readSource reads a source file, or stdin for "-".
func readSource(path string) ([]byte, error) {
	if path == stdinSource {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, pkg.WrapError(err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkg.WrapError(err)
	}

	return data, nil
}

// parseSource parses a source file into a document, logging the errors of
// lines and blocks that failed. It fails only when nothing parsed.
func parseSource(ctx context.Context, path string) (*lang.Document, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	doc, err := lang.ParseString(ctx, string(data),
		lang.WithLogger(log.Default()),
	)
	if err != nil {
		return nil, err
	}

	for _, perr := range doc.Errors {
		log.WarnContext(ctx, "parse", slog.Any("error", perr))
	}

	if len(doc.Blocks) == 0 && len(doc.Errors) > 0 {
		return nil, ErrNoBlocks.Wrap(doc.Errors[0])
	}

	return doc, nil
}

// compileSource parses and compiles a source file, logging isolated
// failures.
func compileSource(
	ctx context.Context,
	path string,
) (*compile.Result, error) {
	doc, err := parseSource(ctx, path)
	if err != nil {
		return nil, err
	}

	res, err := compile.New(
		compile.WithLogger(log.Default()),
	).Compile(ctx, doc)
	if err != nil {
		return nil, err
	}

	for _, cerr := range res.Errors {
		log.WarnContext(ctx, "compile", slog.Any("error", cerr))
	}

	return res, nil
}
