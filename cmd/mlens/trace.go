package main

import (
	"time"

	"github.com/aretw0/mlens/internal/cli"
	"github.com/aretw0/mlens/pkg/params"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <algorithm>",
	Short: "Build a whole trace and print it as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		assignments, _ := cmd.Flags().GetStringArray("param")
		values, err := params.ParseAssignments(assignments)
		if err != nil {
			return err
		}
		seed := time.Now().UnixNano()
		if cmd.Flags().Changed("seed") {
			seed, _ = cmd.Flags().GetInt64("seed")
		}
		format, _ := cmd.Flags().GetString("output")

		engine, cleanup, err := cli.NewEngine(cfg, cli.EngineOptions{})
		if err != nil {
			return err
		}
		defer cleanup()

		steps, err := engine.Trace(cmd.Context(), args[0], values, seed)
		if err != nil {
			return err
		}
		alg, err := engine.Algorithm(args[0])
		if err != nil {
			return err
		}
		return cli.WriteTrace(cmd.OutOrStdout(), cli.TraceDocument{
			Algorithm: alg.Meta().Slug,
			Seed:      seed,
			Steps:     steps,
		}, format)
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringArrayP("param", "p", nil, "Parameter assignment name=value (repeatable)")
	traceCmd.Flags().Int64("seed", 0, "Random seed; omitted picks a fresh one")
	traceCmd.Flags().StringP("output", "o", cli.FormatJSON, "Output format: json or yaml")
}
