package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/runmd/cli/cmd"
	"github.com/ardnew/runmd/pkg"
)

// CLI is the top-level command-line interface for runmd.
type CLI struct {
	Log     logConfig        `embed:"" group:"log"   prefix:"log-"`
	Pprof   pprofConfig      `embed:"" group:"pprof" prefix:"pprof-"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Parse  cmd.Parse  `cmd:"" default:"withargs" help:"Parse sources and print the instruction stream"`
	Export cmd.Export `cmd:""                    help:"Compile sources and export resources as YAML"`
	Encode cmd.Encode `cmd:""                    help:"Compile sources and persist wire frames"`
	Decode cmd.Decode `cmd:""                    help:"Read persisted wire frames and export as YAML"`
}

// Run executes the runmd CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so early configuration applies regardless
	// of flag position. TextUnmarshaler on logFormat/logLevel handles those
	// flags during normal parsing, but this early scan also catches boolean
	// flags like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Vars{"version": strings.TrimSpace(pkg.Version)},
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		cli.Pprof.vars(),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
