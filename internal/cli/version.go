package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pcb-netlist/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pcbnet %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	},
}
