package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	// The server logs at info; here only problems are interesting.
	if os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
		_ = os.Setenv("LOG_LEVEL", "warn")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping encoder...")
		cancel()
	}()

	opts := rootOptions{
		stdoutIsTerminal: term.IsTerminal(int(os.Stdout.Fd())), //nolint:gosec // G115: file descriptors fit in int
	}

	err := newRootCommand(opts).ExecuteContext(ctx)
	cancel()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, errUsage) {
		os.Exit(exitUsage)
	}
	os.Exit(exitFailure)
}
