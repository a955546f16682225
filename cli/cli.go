package cli

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/clonelist/cli/cmd"
	"github.com/ardnew/clonelist/log"
	"github.com/ardnew/clonelist/pkg"
)

// CLI is the top-level command-line interface for clonelist.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Lang  langConfig  `embed:"" group:"lang"`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Expand cmd.Expand `cmd:"" default:"withargs" help:"Expand invocations in Go source files"`
	Check  cmd.Check  `cmd:""                    help:"Check invocations without writing output"`
	Fmt    cmd.Fmt    `cmd:""                    help:"Format invocation requests"`
	Eval   cmd.Eval   `cmd:""                    help:"Evaluate an invocation"`
	Repl   cmd.Repl   `cmd:""                    help:"Start the interactive playground"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the clonelist CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		"version":            pkg.Version(),
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Lang.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	options := []kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Lang.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		// Later loaders take precedence: the project file overrides the
		// user's files.
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(decodeYAML), configFilePath),
		vars,
	}

	if wd, err := os.Getwd(); err == nil {
		if path := findProjectConfig(wd); path != "" {
			options = append(options, kong.Configuration(resolve(decodeTOML), path))
		}
	}

	parser, err := kong.New(&cli, options...)
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

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	logger := log.Default()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithLogger(ctx, logger)
	ctx = cmd.WithMacro(ctx, cli.Lang.Macro)
	ctx = cmd.WithOptions(ctx, cli.Lang.options(logger)...)

	return ktx.Run(ctx, &cli)
}
