package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/regremote/pkg/access"
	"github.com/joshuapare/regremote/pkg/batch"
	"github.com/joshuapare/regremote/pkg/types"
)

// valueFlags are shared by the commands that print values.
type valueFlags struct {
	kinds  []string
	hex    bool
	expand bool
}

func (f *valueFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.hex, "hex", false, "Show DWord and QWord data as hex")
	cmd.Flags().BoolVar(&f.expand, "expand", false, "Expand %VAR% references in ExpandString data from the local environment")
}

func (f *valueFlags) options() (access.GetOptions, error) {
	opts := access.GetOptions{Hex: f.hex, Expand: f.expand}
	if f.expand {
		opts.Lookup = os.LookupEnv
	}
	for _, k := range f.kinds {
		kind, err := types.ParseValueKind(k)
		if err != nil {
			return opts, err
		}
		opts.Kinds = append(opts.Kinds, kind)
	}
	return opts, nil
}

// valueName maps the "(default)" marker shown in listings onto the unnamed
// slot it stands for.
func valueName(name string) string {
	if name == types.DefaultValueMarker {
		return ""
	}
	return name
}

func newGetCmd(g *globals) *cobra.Command {
	var vf valueFlags
	cmd := &cobra.Command{
		Use:   "get <key> [name]",
		Short: "Read a registry value",
		Long: `The get command reads one value from a key on every target host. Without
a name, or with "(default)", it reads the key's default value.

Example:
  regctl get 'SYSTEM\CurrentControlSet\Control\Terminal Server\WinStations\RDP-Tcp' PortNumber -c srv1,srv2
  regctl get 'SOFTWARE\Contoso' Path --kind ExpandString --expand
  regctl get 'SOFTWARE\Contoso' Flags --kind dword --hex`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := vf.options()
			if err != nil {
				return err
			}
			op := batch.GetDefault(args[0], opts)
			if len(args) == 2 && valueName(args[1]) != "" {
				op = batch.GetValue(args[0], args[1], opts)
			}
			return g.run(cmd, op)
		},
	}
	vf.register(cmd)
	cmd.Flags().StringSliceVar(&vf.kinds, "kind", nil, "Only accept values of these kinds (String, ExpandString, Binary, DWord, MultiString, QWord)")
	return cmd
}
