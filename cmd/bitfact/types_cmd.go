package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bitfact/internal/types"
)

var typesCmd = &cobra.Command{
	Use:   "types <descriptor.msgpack|->",
	Short: "Decode a msgpack type descriptor and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		d, err := types.DecodeDescriptor(data)
		if err != nil {
			return err
		}
		in := types.NewInterner()
		id, err := in.FromDescriptor(d)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, in.String(id))
		fmt.Fprintf(out, "leaves: %d\nbits:   %d\n", in.LeafCount(id), in.FlatBitCount(id))
		return nil
	},
}
