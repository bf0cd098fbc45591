package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantscout/grantscout/tracing"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(tracing.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
