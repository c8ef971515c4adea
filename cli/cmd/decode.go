package cmd

import (
	"context"
	"os"

	"github.com/ardnew/runmd/wire"
)

// Decode reads persisted wire frames and exports them as YAML.
type Decode struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Input string `arg:"" help:"Frame input file." name:"input" type:"existingfile"`
}

// Run executes the decode command.
func (d *Decode) Run(ctx context.Context) error {
	frames, err := wire.ReadFile(d.Input)
	if err != nil {
		return err
	}

	blocks, err := wire.DecodeAll(frames)
	if err != nil {
		return err
	}

	return writeYAML(ctx, os.Stdout, viewBlocks(blocks), d.Indent)
}
