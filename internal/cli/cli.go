// Package cli parses driftline's command line and dispatches to the interactive
// interface or a one-shot diff print.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/driftline/driftline/internal/applog"
	"github.com/driftline/driftline/internal/config"
	"github.com/driftline/driftline/internal/gitcmd"
	"github.com/driftline/driftline/internal/render"
	"github.com/driftline/driftline/internal/tui"
)

// Version is the driftline version. A var rather than a const so release tooling can
// override it with -ldflags "-X github.com/driftline/driftline/internal/cli.Version=...".
var Version = "0.1.0"

// Run executes the command line in args (os.Args shaped: args[0] is the program name).
// It returns a recommended exit code: 0 on success, 1 on runtime errors, 2 on usage
// errors. A non-nil error has not been printed yet; the caller owns reporting it.
func Run(args []string) (int, error) {
	fs := pflag.NewFlagSet("driftline", pflag.ContinueOnError)
	var (
		staged     = fs.Bool("staged", false, "operate on the staged view")
		printOnly  = fs.BoolP("print", "p", false, "print the diff and exit instead of starting the interface")
		contextN   = fs.IntP("context", "U", -1, "context lines around changes (overrides config)")
		noColor    = fs.Bool("no-color", false, "print without colors")
		configPath = fs.String("config", "", "config file (default ~/.config/driftline/config.toml)")
		version    = fs.BoolP("version", "v", false, "print the version and exit")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: driftline [flags] [path]\n\nflags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return 2, err
	}
	if *version {
		fmt.Println("driftline " + Version)
		return 0, nil
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2, fmt.Errorf("expected at most one path, got %d", fs.NArg())
	}
	dir := "."
	if fs.NArg() == 1 {
		dir = fs.Arg(0)
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		return 1, err
	}
	if *contextN >= 0 {
		conf.DiffContext = *contextN
	}

	logger, closeLog := applog.New(conf.LogFile)
	defer func() { _ = closeLog() }()
	logger.Info("driftline starting", "version", Version, "dir", dir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := gitcmd.Open(ctx, dir, gitcmd.Options{
		GitBin:  conf.GitBin,
		Context: conf.DiffContext,
		Logger:  logger,
	})
	if err != nil {
		return 1, err
	}

	if *printOnly {
		if err := printDiff(ctx, os.Stdout, svc, conf, *staged, *noColor); err != nil {
			return 1, err
		}
		return 0, nil
	}

	if err := tui.Run(ctx, tui.Config{Service: svc, Conf: conf, Logger: logger, Staged: *staged}); err != nil {
		return 1, err
	}
	return 0, nil
}

// printDiff renders the requested diff for every changed file to w.
func printDiff(ctx context.Context, w io.Writer, svc *gitcmd.Service, conf *config.Config, staged, noColor bool) error {
	scope := gitcmd.Worktree
	if staged {
		scope = gitcmd.Index
	}
	fds, err := svc.Diff(ctx, scope)
	if err != nil {
		return err
	}

	theme := render.ForName(conf.Theme)
	if noColor {
		theme = render.NoColor()
	}
	r := render.New(theme, render.Options{
		Granularity: conf.WordGranularity(),
		Syntax:      conf.Syntax && !noColor,
		MaxLineLen:  conf.MaxLineLen,
	})
	for i, fd := range fds {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, r.FileDiff(fd))
	}
	return nil
}
