package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/pkg/batch"
	"github.com/joshuapare/regremote/pkg/codec"
	"github.com/joshuapare/regremote/pkg/types"
)

func newSetCmd(g *globals) *cobra.Command {
	var kindName string
	cmd := &cobra.Command{
		Use:   "set <key> <name> <data>...",
		Short: "Write a registry value",
		Long: `The set command writes a value under an existing key on every target host.
Each host is asked for confirmation unless --force is given.

An empty name or "(default)" writes the key's default value, which is
always a String.

DWord and QWord data accept decimal or 0x-prefixed hex. Binary data is hex,
optionally separated by spaces, commas or colons. MultiString takes one
argument per element.

Example:
  regctl set 'SOFTWARE\Contoso' Port 3389 --kind dword -c srv1,srv2 --force
  regctl set 'SOFTWARE\Contoso' Servers a.example b.example --kind multi_sz
  regctl set 'SOFTWARE\Contoso' '(default)' 'Contoso Agent'`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseValueKind(kindName)
			if err != nil {
				return err
			}
			path, name := args[0], args[1]
			data, err := codec.ParseText(kind, args[2:])
			if err != nil {
				return err
			}
			if valueName(name) == "" {
				if kind != types.KindString {
					return fmt.Errorf("the default value is always a String, not %s", kind)
				}
				return g.run(cmd, batch.SetDefault(path, data.(string)))
			}
			return g.run(cmd, batch.SetValue(path, name, kind, data))
		},
	}
	cmd.Flags().StringVarP(&kindName, "kind", "k", "String", "Value kind (String, ExpandString, Binary, DWord, MultiString, QWord)")
	return cmd
}
