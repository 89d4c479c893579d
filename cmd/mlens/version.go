package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/mlens"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mlens",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mlens version %s\n", strings.TrimSpace(mlens.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
