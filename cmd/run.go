package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/config"
	"github.com/Quidge/actrun/internal/runner"
	"github.com/Quidge/actrun/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the test matrix",
	Long: `Run every configured backend, compiler and test through the driver.

Every subject file must exist before anything runs. A driver that fails,
cannot start, or exceeds --timeout is recorded as a failed instance; the rest
of the matrix still runs. The command exits non-zero if any instance failed.

Use --backend, --compiler and --subject (repeatable) to run part of the
matrix.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runFlags     config.FlagOverrides
	runSelection config.Selection
	runNoHistory bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVarP(&runFlags.Jobs, "jobs", "j", 0, "number of instances to run at once")
	runCmd.Flags().DurationVar(&runFlags.Timeout, "timeout", 0, "time limit per driver invocation")
	runCmd.Flags().StringVarP(&runFlags.OutputDir, "output", "o", "", "override output directory")
	runCmd.Flags().StringVar(&runFlags.Executor, "executor", "", "executor type")
	runCmd.Flags().StringSliceVar(&runSelection.Backends, "backend", nil, "only run this backend")
	runCmd.Flags().StringSliceVar(&runSelection.Compilers, "compiler", nil, "only run this compiler")
	runCmd.Flags().StringSliceVar(&runSelection.Subjects, "subject", nil, "only run this subject")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "don't record the run in the history database")
}

// errFailures is returned when a batch completed but some instances failed.
type errFailures struct {
	failed, total int
}

func (e *errFailures) Error() string {
	return fmt.Sprintf("%d of %d instances failed", e.failed, e.total)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(runFlags, runSelection)
	if err != nil {
		return err
	}

	var db *state.DB
	if !runNoHistory {
		db, err = state.Open(cfg.StateDB)
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer db.Close()
	}

	r, err := newRunner(cfg, db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := r.Run(ctx)
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return err
	}
	if n := summary.Failed(); n > 0 {
		return &errFailures{failed: n, total: len(summary.Outcomes)}
	}
	return nil
}

// printSummary writes one line per failed instance and a closing count.
func printSummary(out io.Writer, summary *runner.Summary) {
	if failed := summary.Failed(); failed > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BACKEND\tINSTANCE\tVERDICT\tREASON")
		for _, o := range summary.Outcomes {
			if o.OK() {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", o.Instance.Backend, o.Instance.Name(), o.Verdict, o.Reason)
		}
		w.Flush()
		fmt.Fprintln(out)
	}

	counts := summary.Counts()
	fmt.Fprintf(out, "%d instances: %d pass, %d error, %d missing, %d invalid",
		len(summary.Outcomes),
		counts[state.VerdictPass],
		counts[state.VerdictError],
		counts[state.VerdictMissing],
		counts[state.VerdictInvalid],
	)
	if summary.RunID != "" {
		fmt.Fprintf(out, " (run %s)", state.ShortID(summary.RunID))
	}
	fmt.Fprintln(out)
}
