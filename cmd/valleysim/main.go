// Command valleysim runs the demographic micro-simulation of a valley study
// area: births, deaths, marriages and migration across households and
// neighborhoods with finite land.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "valleysim",
		Short:        "Agent-based demographic simulation of a valley study area",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(defaultsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the study area and run the simulation to its end month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			opts.traceSet = cmd.Flags().Changed("trace")
			return runSimulation(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML run configuration (defaults when empty)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides output.database)")
	cmd.Flags().StringVar(&opts.csvDir, "csv", "", "CSV output directory (overrides output.csv_dir)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "write per-timestep trace spans to stderr")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (overrides the config; 0 picks one)")
	return cmd
}

func validateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a run configuration without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				return fmt.Errorf("validate: --config is required")
			}
			return runValidate(cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML run configuration")
	return cmd
}

func defaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults [path]",
		Short: "Write the default configuration as YAML to path, or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runDefaults(cmd.OutOrStdout(), path)
		},
	}
}
