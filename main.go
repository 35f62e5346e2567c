// Command figforge serves the shape engine over HTTP or runs a drawing
// script against an in-memory document.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"

	"github.com/chazu/figforge/pkg/config"
	"github.com/chazu/figforge/pkg/logging"
)

const usage = `figforge builds design nodes from declarative shape descriptions.

Usage:
  figforge serve [-config file] [-listen addr] [-v]
  figforge run   [-config file] [-v] script.fig

Commands:
  serve   serve the HTTP API and the /events websocket
  run     evaluate a script and print the resulting node summaries as JSON

Environment variables prefixed with FIGFORGE_ override the config file.
`

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

// runCLI dispatches a subcommand and returns the process exit code.
func runCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "serve":
		err = serveCmd(args[1:], stderr)
	case "run":
		err = runCmd(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "figforge: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "figforge: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "figforge: %v\n", err)
	return 1
}

// usageError marks bad command-line input.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// commonFlags registers the flags every subcommand accepts.
func commonFlags(fs *flag.FlagSet) (configPath *string, verbose *bool) {
	configPath = fs.String("config", "", "path to a YAML config file")
	verbose = fs.Bool("v", false, "log at debug level")
	return configPath, verbose
}

// setup loads the config and configures logging.
func setup(configPath string, verbose bool, stderr io.Writer) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		lvl = log.DEBUG
	}
	logging.Setup(lvl, stderr)
	return cfg, nil
}

func serveCmd(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath, verbose := commonFlags(fs)
	listen := fs.String("listen", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageError{fmt.Sprintf("serve takes no arguments, got %q", fs.Args())}
	}

	cfg, err := setup(*configPath, *verbose, stderr)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewApp(cfg).Serve(ctx)
}

func runCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath, verbose := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usageError{"run requires exactly one script file"}
	}

	cfg, err := setup(*configPath, *verbose, stderr)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	result := NewApp(cfg).Evaluate(context.Background(), string(source))
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %d error(s), first: %v", fs.Arg(0), len(result.Errors), result.Errors[0])
	}
	return nil
}
