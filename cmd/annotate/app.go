package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/toyz/annotate/internal/cli"
	"github.com/toyz/annotate/internal/config"
	"github.com/toyz/annotate/internal/server"
	"github.com/toyz/annotate/internal/utils"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// EnvLogLevel names the environment variable holding the server log level
const EnvLogLevel = "ANNOTATE_LOG_LEVEL"

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: annotate <command> [options] [arguments]\n\n")
	fmt.Fprintf(w, "Reads @Name(...) annotations from the doc comments of Go code.\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  scan [directory-paths...]  Parse every annotation and report the results\n")
	fmt.Fprintf(w, "  serve                      Serve the parser over HTTP\n")
	fmt.Fprintf(w, "  clean                      Remove the scan result store\n")
	fmt.Fprintf(w, "\nDirectory Patterns:\n")
	fmt.Fprintf(w, "  ./...              Scan current directory and all subdirectories recursively\n")
	fmt.Fprintf(w, "  ./internal/...     Scan internal directory and all its subdirectories\n")
	fmt.Fprintf(w, "  ./pkg/api          Scan only the specific directory (no recursion)\n")
	fmt.Fprintf(w, "\nRun 'annotate <command> --help' for the options of a command.\n")
}

// run executes the command line and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "scan":
		return runScan(ctx, args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "clean":
		return runClean(args[1:], stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

// newFlagSet creates the flag set of a command. Every command accepts
// --config.
func newFlagSet(name, synopsis string, stderr io.Writer) (*pflag.FlagSet, *string) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: annotate %s\n\nOptions:\n", synopsis)
		flags.PrintDefaults()
	}
	configPath := flags.StringP("config", "c", "", "Configuration file (default $"+config.EnvConfigPath+" or ./"+config.DefaultFileName+")")
	return flags, configPath
}

// parseFlags parses args and reports whether the command should go on
func parseFlags(flags *pflag.FlagSet, args []string) (bool, int) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, exitOK
		}
		return false, exitUsage
	}
	return true, exitOK
}

func newDiagnostics(verbose, quiet bool, stderr io.Writer) *utils.DiagnosticSystem {
	var diag *utils.DiagnosticSystem
	switch {
	case quiet:
		diag = utils.NewQuietDiagnostics()
	case verbose:
		diag = utils.NewVerboseDiagnostics()
	default:
		diag = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	// stdout is reserved for the report
	return diag.Redirect(stderr, stderr)
}

func runScan(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, configPath := newFlagSet("scan", "scan [options] [directory-paths...]", stderr)
	only := flags.String("only", "", "Only report annotations of this type")
	allowUnknown := flags.Bool("allow-unknown", false, "Register a generic type for unknown annotations instead of failing")
	cachePath := flags.String("cache", "", "Result store used to skip unchanged files (overrides the config)")
	output := flags.StringP("output", "o", "", "Report format: table or json (overrides the config)")
	verbose := flags.BoolP("verbose", "v", false, "Enable verbose output and detailed error reporting")
	quiet := flags.BoolP("quiet", "q", false, "Only show errors and the report")
	if ok, code := parseFlags(flags, args); !ok {
		return code
	}

	diag := newDiagnostics(*verbose, *quiet, stderr)
	reporter := cli.NewDiagnosticReporter(diag, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		reporter.ReportError(err)
		return exitUsage
	}
	if cfg.Path() != "" {
		diag.Verbose("using configuration %s", cfg.Path())
	}

	runCfg := cli.Config{
		Directories:  flags.Args(),
		Filter:       *only,
		AllowUnknown: *allowUnknown,
		CachePath:    cfg.Cache,
		Output:       cfg.Output,
	}
	if *cachePath != "" {
		runCfg.CachePath = *cachePath
	}
	if *output != "" {
		runCfg.Output = *output
	}
	if err := validateScan(runCfg); err != nil {
		reporter.ReportError(err)
		return exitUsage
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		reporter.ReportError(err)
		return exitUsage
	}

	if len(runCfg.Directories) == 0 {
		runCfg.Directories = []string{"."}
	}
	diag.Header("scanning " + strings.Join(runCfg.Directories, ", "))
	diag.Verbose("%d annotation types registered", registry.Len())

	result, err := cli.NewScanner(runCfg, registry, cfg.Ignore, diag).Run(ctx)
	if err != nil {
		reporter.ReportError(err)
		return exitFailed
	}

	if err := cli.NewReporter(stdout, runCfg.Output).Render(result); err != nil {
		reporter.ReportError(err)
		return exitFailed
	}
	reporter.ReportAnnotationErrors(result.Errors)
	reporter.ReportSummary(result)

	if result.Failed() {
		return exitFailed
	}
	return exitOK
}

func validateScan(c cli.Config) error {
	if c.Filter != "" {
		if err := utils.ValidateAnnotationName("only")(c.Filter); err != nil {
			return err
		}
	}
	return utils.IsOneOf("output", config.OutputTable, config.OutputJSON)(c.Output)
}

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	flags, configPath := newFlagSet("serve", "serve [options]", stderr)
	addr := flags.String("addr", "", "Listen address (overrides the config)")
	timeout := flags.Duration("timeout", 0, "Request and shutdown timeout (overrides the config)")
	verbose := flags.BoolP("verbose", "v", false, "Log at debug level")
	if ok, code := parseFlags(flags, args); !ok {
		return code
	}

	diag := newDiagnostics(*verbose, false, stderr)
	reporter := cli.NewDiagnosticReporter(diag, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		reporter.ReportError(err)
		return exitUsage
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *timeout != 0 {
		cfg.Server.Timeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		reporter.ReportError(err)
		return exitUsage
	}

	registry, err := cfg.BuildRegistry()
	if err != nil {
		reporter.ReportError(err)
		return exitUsage
	}

	level := os.Getenv(EnvLogLevel)
	if *verbose {
		level = "debug"
	}
	logger := server.NewLogger(stderr, level)
	defer func() { _ = logger.Sync() }()

	srv := server.New(server.Config{
		Addr:    cfg.Server.Addr,
		Timeout: cfg.Server.Timeout,
		Ignore:  cfg.Ignore,
	}, registry, logger)

	if err := srv.Run(ctx); err != nil {
		reporter.ReportError(err)
		return exitFailed
	}
	return exitOK
}

func runClean(args []string, stderr io.Writer) int {
	flags, configPath := newFlagSet("clean", "clean [options]", stderr)
	cachePath := flags.String("cache", "", "Result store to remove (overrides the config)")
	quiet := flags.BoolP("quiet", "q", false, "Only show errors")
	if ok, code := parseFlags(flags, args); !ok {
		return code
	}

	diag := newDiagnostics(false, *quiet, stderr)
	reporter := cli.NewDiagnosticReporter(diag, false)

	path := *cachePath
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			reporter.ReportError(err)
			return exitUsage
		}
		path = cfg.Cache
	}
	if path == "" {
		diag.Warn("no result store configured, nothing to clean")
		return exitOK
	}

	removed, err := cli.NewCleaner().Clean(path)
	if err != nil {
		reporter.ReportError(err)
		return exitFailed
	}
	for _, file := range removed {
		diag.Item("removed %s", file)
	}
	diag.Success("%d file(s) removed", len(removed))
	return exitOK
}
