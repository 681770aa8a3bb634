package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/pkg/batch"
)

func newRemoveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key> <name>",
		Short: "Remove a registry value",
		Long: `The remove command deletes one value on every target host. A host where
the value does not exist is reported as failed. "(default)" removes the key's default value.

Example:
  regctl remove 'SOFTWARE\Contoso' Obsolete -c srv1,srv2 --force`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, batch.RemoveValue(args[0], valueName(args[1])))
		},
	}
}
