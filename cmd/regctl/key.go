package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/pkg/batch"
)

func newKeyCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Create, remove, test and list registry keys",
	}
	cmd.AddCommand(
		newKeyCreateCmd(g),
		newKeyRemoveCmd(g),
		newKeyTestCmd(g),
		newKeyListCmd(g),
	)
	return cmd
}

func newKeyCreateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "create <key>",
		Short: "Create a key and any missing parents",
		Long: `Example:
  regctl key create 'SOFTWARE\Contoso\Agent' -c srv1,srv2 --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, batch.CreateKey(args[0]))
		},
	}
}

func newKeyRemoveCmd(g *globals) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a key",
		Long: `Removing a key that still has subkeys fails unless --recursive is given.

Example:
  regctl key remove 'SOFTWARE\Contoso' --recursive -c srv1 --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, batch.RemoveKey(args[0], recursive))
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Remove subkeys too")
	return cmd
}

func newKeyTestCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "test <key>",
		Short: "Report whether a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, batch.TestKey(args[0]))
		},
	}
}

func newKeyListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list <key> [pattern]",
		Short: "List the subkeys of a key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 2 {
				pattern = args[1]
			}
			return g.run(cmd, batch.ListKeys(args[0], pattern))
		},
	}
}
