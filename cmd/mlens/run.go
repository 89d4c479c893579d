package main

import (
	"os"

	"github.com/aretw0/mlens/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [algorithm]",
	Short: "Step through an algorithm in the terminal",
	Long: `Builds the trace of an algorithm and opens the interactive player.

Keys: enter or n forward, b back, g N go to step N, p play, s pause,
r reset, q quit. With --headless every step is printed and the command exits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := cli.RunOptions{Config: cfg}
		if len(args) > 0 {
			opts.Algorithm = args[0]
		}
		opts.Params, _ = cmd.Flags().GetStringArray("param")
		opts.Preset, _ = cmd.Flags().GetString("preset")
		opts.Play, _ = cmd.Flags().GetBool("play")
		opts.Interval, _ = cmd.Flags().GetDuration("interval")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetInt64("seed")
			opts.Seed = &seed
		}
		if cmd.Flags().Changed("presets") {
			opts.Config.Presets.Dir, _ = cmd.Flags().GetString("presets")
		}

		return cli.Execute(cmd.Context(), opts, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("param", "p", nil, "Parameter assignment name=value (repeatable)")
	runCmd.Flags().Int64("seed", 0, "Random seed; omitted picks a fresh one")
	runCmd.Flags().String("preset", "", "Load algorithm, seed and parameters from a preset")
	runCmd.Flags().String("presets", "", "Directory containing presets (overrides presets.dir)")
	runCmd.Flags().Bool("play", false, "Start auto-play once the trace is ready")
	runCmd.Flags().Duration("interval", 0, "Auto-play period (overrides server.tick_interval)")
	runCmd.Flags().Bool("headless", false, "Print every step without waiting for input")
}
