package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Judge existing output without running drivers",
	Long: `Judge every instance from what is already in its output directory.

An instance passes if its error file is empty and its state file is a JSON
object that contains every location listed in the subject's header. Nothing
is run and nothing is recorded. The command exits non-zero if any instance
does not pass.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkSelection config.Selection

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringSliceVar(&checkSelection.Backends, "backend", nil, "only check this backend")
	checkCmd.Flags().StringSliceVar(&checkSelection.Compilers, "compiler", nil, "only check this compiler")
	checkCmd.Flags().StringSliceVar(&checkSelection.Subjects, "subject", nil, "only check this subject")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(config.FlagOverrides{}, checkSelection)
	if err != nil {
		return err
	}
	r, err := newRunner(cfg, nil)
	if err != nil {
		return err
	}

	summary, err := r.Check(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)
	if n := summary.Failed(); n > 0 {
		return &errFailures{failed: n, total: len(summary.Outcomes)}
	}
	return nil
}
