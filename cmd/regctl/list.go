package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/pkg/batch"
)

func newListCmd(g *globals) *cobra.Command {
	var vf valueFlags
	cmd := &cobra.Command{
		Use:   "list <key> [pattern]",
		Short: "List the values of a key",
		Long: `The list command prints every value of a key whose name matches the
wildcard pattern (* and ?, case-insensitive). The default value is listed
as "(default)".

Example:
  regctl list 'SOFTWARE\Contoso'
  regctl list 'SOFTWARE\Contoso' 'Port*' -c srv1 --hex`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := vf.options()
			if err != nil {
				return err
			}
			pattern := ""
			if len(args) == 2 {
				pattern = args[1]
			}
			return g.run(cmd, batch.ListValues(args[0], pattern, opts))
		},
	}
	vf.register(cmd)
	return cmd
}
