package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"atomcss/atomic"
	"atomcss/compile"
	"atomcss/config"
	"atomcss/misc"
	"atomcss/state"
)

// initializeAppContext runs after command line is parsed: it loads
// configuration, opens debug report when asked and sets up logging.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)
	configFile := cmd.String("config")

	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	env.Cfg = cfg

	if cmd.Bool("debug") {
		if env.Rpt, err = cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug report: %w", err)
		}
		// effective configuration is what explains produced class names
		name := "default.yaml"
		if len(configFile) > 0 {
			name = filepath.Base(configFile)
		}
		if data, err := config.Dump(cfg); err == nil {
			env.Rpt.StoreData("config/"+name, data)
		}
	}

	if env.Log, err = cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()),
		zap.Bool("defaults", len(configFile) == 0))
	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.RestoreStdLog()

	// from here on log is synced and may end up in the report, anything
	// going wrong goes to stderr
	var errs error
	if err := env.Rpt.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("unable to close debug report: %w", err))
	}
	if env.Cfg != nil {
		errs = multierr.Append(errs, removeEmptyPanicLog(env.Cfg.Logging.FileLogger.Destination))
	}
	return errs
}

// removeEmptyPanicLog drops crash output file set up next to the log when
// nothing has been written there.
func removeEmptyPanicLog(logFile string) error {
	if len(logFile) == 0 {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})

	fname := filepath.Join(filepath.Dir(logFile), misc.GetAppName()+"-panic.log")
	fi, err := os.Stat(fname)
	if err != nil || fi.Size() != 0 {
		return nil
	}
	if err := os.Remove(fname); err != nil {
		return fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, err)
	}
	return nil
}

// Ignore urfave/cli default error handling, subcommands return regular errors.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "compiles nested style trees into atomic CSS",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "compile",
				Usage:        "Compiles style documents to atomic CSS",
				OnUsageError: usageErrorHandler,
				Action:       compile.Run,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write stylesheet to `FILE` instead of STDOUT"},
					&cli.StringSliceFlag{Name: "scope", Aliases: []string{"s"}, Usage: "outer scope `FRAGMENT` applied before document scope (repeatable)"},
					&cli.BoolFlag{Name: "dedupe", Usage: "drop repeated rules keeping the first one"},
					&cli.BoolFlag{Name: "verify", Usage: "parse produced stylesheet back and check it against compiled rules"},
					&cli.StringFlag{Name: "charset",
						Usage: "decode sources and non UTF-8 archive names without byte order mark using `ENCODING` (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE...",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to style source(s) to process, following forms are supported:
        path to a file: "[path_to_file]file.yaml"
        path to a directory: "[path_to_directory]directory" - recursively process all .yaml and .yml files and zip archives under directory
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - process style files under archive path

    Every source is a stream of YAML documents:
        scope: ["@media print", "& > p"]   # optional
        styles:
          color: red
          hover:
            bg: blue

    Rules are written in the order sources are given and documents appear.
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "explain",
				Usage:        "Shows raw text behind generated class names",
				OnUsageError: usageErrorHandler,
				Action:       explainClasses,
				ArgsUsage:    "CLASS...",
			},
			{
				Name:         "list",
				Usage:        "Lists configured conditions and utilities",
				OnUsageError: usageErrorHandler,
				Action:       listRegistry,
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       dumpConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Writes effective configuration: embedded defaults with the configuration
file given by --config merged on top. Condition and utility tables shown
here are exactly what compile uses. Use --default to see embedded defaults
alone, a good starting point for your own configuration file.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// os.Exit below skips deferred calls, this must stay the last one
	defer func() {
		stop()
		if err != nil {
			// log may not exist yet (bad arguments, bad configuration) or is
			// closed already
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

// dumpConfiguration writes default or effective configuration to the file
// named by the first argument or to STDOUT.
func dumpConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	args := cmd.Args().Slice()
	if len(args) > 1 {
		env.Log.Warn("Too many destinations, using the first one", zap.Strings("ignoring", args[1:]))
	}

	which, produce := "effective", func() ([]byte, error) { return config.Dump(env.Cfg) }
	if cmd.Bool("default") {
		which, produce = "default", config.Prepare
	}
	data, err := produce()
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", which, err)
	}

	dest := "STDOUT"
	out := io.Writer(os.Stdout)
	if len(args) > 0 {
		dest = args[0]
		f, ferr := os.Create(dest)
		if ferr != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", dest, ferr)
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		out = f
	}

	env.Log.Info("Writing configuration", zap.String("configuration", which), zap.String("destination", dest))
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

// explainClasses prints raw text (scope, conditions, utility and value)
// behind class names as they appear in stylesheet or markup.
func explainClasses(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("no class names to explain")
	}

	var errs error
	for _, name := range cmd.Args().Slice() {
		raw, err := atomic.Unescape(strings.TrimPrefix(name, "."))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("class %q: %w", name, err))
			continue
		}
		fmt.Fprintf(os.Stdout, "%s\t%s\n", name, raw)
	}
	return errs
}

func listRegistry(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if _, err := env.PrepareEngine(); err != nil {
		return fmt.Errorf("unable to prepare engine: %w", err)
	}
	if cmd.Args().Len() > 0 {
		env.Log.Warn("Arguments are ignored", zap.String("arguments", strings.Join(cmd.Args().Slice(), " ")))
	}
	return env.Registry.List(os.Stdout)
}
