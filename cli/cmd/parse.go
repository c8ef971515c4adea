package cmd

import (
	"context"
	"fmt"
	"os"
)

// Parse lexes and parses runmd sources, printing the flat instruction
// stream of every block that parsed.
type Parse struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) error {
	doc, err := parseSource(ctx, p.Source)
	if err != nil {
		return err
	}

	for _, block := range doc.Blocks {
		for _, in := range block.Instructions {
			if _, err := fmt.Fprintln(os.Stdout, in.String()); err != nil {
				return err
			}
		}
	}

	return nil
}
