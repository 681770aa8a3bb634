package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/pkg/batch"
)

func newTestCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "test <key> <name>",
		Short: "Report whether a registry value exists",
		Long: `The test command reports true or false per host. A missing key is an
error; a missing value is not. "(default)" tests the key's default value.

Example:
  regctl test 'SOFTWARE\Contoso' Port -c srv1,srv2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, batch.TestValue(args[0], valueName(args[1])))
		},
	}
}
