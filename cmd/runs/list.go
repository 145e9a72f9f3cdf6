package runs

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/state"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent runs",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var (
	listLimitFlag int
	listJSONFlag  bool
)

func init() {
	listCmd.Flags().IntVarP(&listLimitFlag, "limit", "n", 20, "maximum number of runs to show (0 for all)")
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(listLimitFlag)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if listJSONFlag {
		return writeRunsJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}
	return writeRunsTable(out, runs, time.Now())
}

func writeRunsTable(out io.Writer, runs []*state.Run, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tOUTPUT")
	for _, run := range runs {
		duration := "-"
		if !run.FinishedAt.IsZero() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			state.ShortID(run.ID), run.Status, formatTimeAgo(now.Sub(run.StartedAt), run.StartedAt), duration, run.OutputDir)
	}
	return w.Flush()
}

type runJSON struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	OutputDir  string     `json:"output_dir"`
	Driver     string     `json:"driver"`
}

func writeRunsJSON(out io.Writer, runs []*state.Run) error {
	items := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		item := runJSON{
			ID:        run.ID,
			Status:    string(run.Status),
			StartedAt: run.StartedAt,
			OutputDir: run.OutputDir,
			Driver:    run.Driver,
		}
		if !run.FinishedAt.IsZero() {
			finished := run.FinishedAt
			item.FinishedAt = &finished
		}
		items = append(items, item)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// formatTimeAgo formats an age as a human-readable relative time.
func formatTimeAgo(d time.Duration, t time.Time) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
