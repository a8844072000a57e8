// Command phlow runs a phlow workflow script. Grounded on the teacher's
// root main.go (flag parse -> run -> exit-code handling), with
// github.com/titpetric/cli's command tree dropped in favor of a single
// pflag.Parse() entrypoint since phlow has exactly one command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := NewOptions()
	opts.Bind()
	if err := opts.Parse(os.Args[1:]); err != nil {
		return err
	}
	opts.ApplyEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return Run(ctx, opts)
}
