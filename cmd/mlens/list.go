package main

import (
	"github.com/aretw0/mlens"
	"github.com/aretw0/mlens/internal/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available algorithms and their default parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := mlens.New()
		defer engine.Close()
		return cli.PrintAlgorithms(cmd.OutOrStdout(), engine.Algorithms())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
