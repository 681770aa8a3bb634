package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/joshuapare/regremote/pkg/batch"
)

var isTerminalFn = term.IsTerminal

// confirmer asks on stderr and reads the answer from stdin. Without a
// terminal to ask on, every change is declined.
func (g *globals) confirmer(stdinUsed bool) batch.Confirmer {
	if g.confirm != nil {
		return g.confirm
	}
	interactive := !stdinUsed
	if f, ok := g.stdin.(*os.File); ok {
		interactive = interactive && isTerminalFn(int(f.Fd()))
	}
	if !interactive {
		return batch.ConfirmFunc(func(host, description string) bool {
			g.log.Warn().Str("host", host).Msg("no terminal to confirm on; pass --force to apply changes")
			return false
		})
	}
	in := bufio.NewReader(g.stdin)
	return batch.ConfirmFunc(func(host, description string) bool {
		fmt.Fprintf(g.stderr, "%s on %s? [y/N] ", description, host)
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(g.stderr)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}
