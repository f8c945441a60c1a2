package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bitfact/internal/version"
)

var versionFull bool

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "include commit and build date")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bitfact version",
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := useColor(cmd)
		if err != nil {
			return err
		}
		saved := color.NoColor
		color.NoColor = !enabled
		defer func() { color.NoColor = saved }()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bitfact %s\n", version.Colored())
		if versionFull {
			fmt.Fprintf(out, "commit: %s\n", orUnknown(version.GitCommit))
			fmt.Fprintf(out, "built:  %s\n", orUnknown(version.BuildDate))
		}
		return nil
	},
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
