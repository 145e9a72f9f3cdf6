package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Quidge/actrun/cmd/runs"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	configPath string
	stateDB    string
	verbose    bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "actrun",
	Short: "Run litmus tests across compilers and backends",
	Long: `actrun runs a matrix of litmus tests against compilers and simulation
backends. For every backend, compiler and test it renders a driver command,
runs it, and keeps the result on disk:

  <output_dir>/<backend>/<test>_<compiler>/errors      driver stderr
  <output_dir>/<backend>/<test>_<compiler>/state.json  driver stdout, on success

What is on disk is the truth; the run history database only remembers what
past runs saw.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "project config file (default: search upward for actrun.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDB, "state-db", "", "run history database (default: ~/.local/share/actrun/state.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(runs.Cmd)
}
