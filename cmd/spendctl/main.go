// Command spendctl is a terminal front end for the expense tracker. Every
// invocation restores the saved session, loads the user's data, performs one
// action and prints the resulting state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"expensync/internal/alerts"
	"expensync/internal/backend"
	"expensync/internal/cli"
	"expensync/internal/config"
	"expensync/internal/log"
	"expensync/internal/session"
	"expensync/internal/store"

	"github.com/shopspring/decimal"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type app struct {
	cfg     *config.Config
	logger  *log.Logger
	res     *backend.Result
	store   *store.Store
	monitor *alerts.Monitor

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	cli.LoadEnvFile()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, stderr)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}

	a, cleanup, err := newApp(ctx, cfg, logger, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer cleanup()

	if cmd.loadsData {
		if err := a.store.FetchInitialData(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(res.Gateway, session.NewHolder(res.Session, logger), store.WithLogger(logger))
	monitor := alerts.NewBudgetMonitor(st, res.Publisher, decimal.NewFromFloat(cfg.BudgetAlertThreshold), logger)
	stopMonitor := monitor.Start()

	a := &app{
		cfg:     cfg,
		logger:  logger,
		res:     res,
		store:   st,
		monitor: monitor,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
	cleanup := func() {
		stopMonitor()
		if err := res.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}
	return a, cleanup, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: spendctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration is read from the environment and .env (API_BASE_URL, SESSION_BACKEND, ...).")
}
