// vexeviet is the command-line booking client.  Each invocation restores
// the seat hold from durable storage, runs one command and exits, so a
// hold survives between invocations until it expires or is released.
//
//	vexeviet login --email khach@vexeviet.vn --password vexeviet123
//	vexeviet hold --route R1 --date 2026-11-01 --seats A1,A2
//	vexeviet watch
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/vexeviet/seat-hold/internal/config"
	"github.com/vexeviet/seat-hold/internal/logger"
)

// command is one subcommand of the CLI.
type command struct {
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, a *app, fs *pflag.FlagSet) error
	// offline commands do not need the store, client or controller.
	offline bool
}

func main() {
	config.LoadDotEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet("vexeviet "+args[0], pflag.ContinueOnError)
	fs.SetOutput(out)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.LoadClient()
	log := logger.New()
	logger.SetDefault(log)
	if cmd.offline {
		return cmd.run(ctx, &app{cfg: cfg, out: out, log: log}, fs)
	}
	a, err := newApp(ctx, cfg, out, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return cmd.run(ctx, a, fs)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "usage: vexeviet <command> [flags]")
	fmt.Fprintln(out)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].summary)
	}
	_ = tw.Flush()
}
