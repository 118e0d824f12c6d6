// cmd/assignflow/main.go
//
// This is the entry point for the assignflow CLI.
// When you run `assignflow` from a project, this is what executes.
//
// Exit codes:
//   0  success
//   1  any error
//   2  several assignments compete and none could be chosen

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/kingrea/assignflow/internal/workflow/selector"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(newApp(os.Stdin, os.Stdout, os.Stderr)).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	var ambiguity *selector.AmbiguityError
	if errors.As(err, &ambiguity) {
		return 2
	}
	return 1
}
