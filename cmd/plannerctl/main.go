// Command plannerctl drives the travel planner API from a terminal.
//
//	plannerctl [flags] <command> [args]
//
// Commands: login, register, logout, status, plans, plan, create, update,
// delete, open.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "plannerctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newGlobalFlags(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	a, err := newApp(ctx, fs, stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	err = cmd.run(ctx, a, rest[1:])
	if show, _ := fs.GetBool("metrics"); show {
		if werr := a.writeMetrics(stderr); err == nil {
			err = werr
		}
	}
	return err
}

func newGlobalFlags(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("plannerctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringP("config", "c", "", "config file (yaml, json or toml)")
	fs.String("base-url", "", "API base URL")
	fs.Duration("timeout", 0, "request timeout")
	fs.String("store", "", "credential store: memory, file or redis")
	fs.String("token-file", "", "credential file for the file store")
	fs.String("redis-addr", "", "redis address for the redis store")
	fs.String("locale", "", "notification language, e.g. en or zh-CN")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.StringSlice("kafka-brokers", nil, "publish notifications to these brokers")
	fs.Bool("metrics", false, "print request metrics to stderr when the command finishes")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: plannerctl [flags] <command> [args]")
		fmt.Fprintln(stderr, "\ncommands:")
		for _, name := range commandNames() {
			fmt.Fprintf(stderr, "  %-10s %s\n", name, commands[name].help)
		}
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}
	return fs
}
