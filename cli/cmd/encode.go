package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/runmd/log"
	"github.com/ardnew/runmd/wire"
)

// Encode compiles runmd sources and persists them as wire frames.
type Encode struct {
	Output   string `help:"Output frame file"  required:"" short:"o"`
	Compress bool   `help:"Compress with zstd"             short:"z"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the encode command.
func (e *Encode) Run(ctx context.Context) error {
	res, err := compileSource(ctx, e.Source)
	if err != nil {
		return err
	}

	frames, err := wire.EncodeAll(res.Blocks)
	if err != nil {
		return err
	}

	if err := wire.WriteFile(e.Output, frames, e.Compress); err != nil {
		return err
	}

	log.InfoContext(ctx, "encoded",
		slog.String("output", e.Output),
		slog.Int("blocks", len(res.Blocks)),
		slog.Int("frames", len(frames)),
		slog.Bool("compressed", e.Compress),
	)

	return nil
}
