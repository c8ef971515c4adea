package cmd

import (
	"context"
	"os"
)

// Export compiles runmd sources and exports the resources as YAML.
type Export struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the export command.
func (e *Export) Run(ctx context.Context) error {
	res, err := compileSource(ctx, e.Source)
	if err != nil {
		return err
	}

	return writeYAML(ctx, os.Stdout, viewBlocks(res.Blocks), e.Indent)
}
