// File: cmd/uipilot/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/uipilot/cmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Cancel the run on SIGINT/SIGTERM so the agent and browser shut down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return exitCode(cmd.Execute(ctx))
}

// exitCode maps a command error to the process exit status. An interrupted
// run exits cleanly.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}
