package runs

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/state"
)

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a run and its results",
	Long: `Show a recorded run and the verdict of every instance in it.

The ID can be a prefix if it uniquely identifies a run.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var (
	showFailedFlag   bool
	showBackendFlag  string
	showCompilerFlag string
)

func init() {
	showCmd.Flags().BoolVar(&showFailedFlag, "failed", false, "only show instances that did not pass")
	showCmd.Flags().StringVar(&showBackendFlag, "backend", "", "filter by backend")
	showCmd.Flags().StringVar(&showCompilerFlag, "compiler", "", "filter by compiler")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return lookupError(args[0], err)
	}

	opts := state.ResultOptions{
		RunID:    run.ID,
		Backend:  showBackendFlag,
		Compiler: showCompilerFlag,
	}
	if showFailedFlag {
		opts.Verdicts = []state.Verdict{state.VerdictError, state.VerdictMissing, state.VerdictInvalid}
	}
	results, err := db.ListResults(opts)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	return writeRun(cmd.OutOrStdout(), run, results)
}

func writeRun(out io.Writer, run *state.Run, results []*state.Result) error {
	fmt.Fprintf(out, "ID:       %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "Driver:   %s\n", run.Driver)
	fmt.Fprintln(out)

	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tCOMPILER\tSUBJECT\tEXIT\tVERDICT\tTIME")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			res.Backend, res.Compiler, res.Subject, res.ExitCode, res.Verdict, res.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}
