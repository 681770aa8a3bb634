// Command regctl reads and writes registry values on one or many Windows
// hosts through the remote registry service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		// per-host failures were already reported
		if !errors.Is(err, errHostsFailed) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
