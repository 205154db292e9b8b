// Package main is the entry point of the needle CLI.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/rshade/needle/internal/cli"
	"github.com/rshade/needle/internal/engine"
	"github.com/rshade/needle/pkg/version"
)

// Process exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitNoResults = 2
)

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.ExecuteContext(context.Background())
}

// exitCode maps a command error to a process exit code. A search that
// found nothing exits 2 so scripts can tell it apart from failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, engine.ErrNoResults):
		return exitNoResults
	default:
		return exitError
	}
}

func main() {
	if err := run(); err != nil {
		// cobra has already printed the error.
		os.Exit(exitCode(err))
	}
}
