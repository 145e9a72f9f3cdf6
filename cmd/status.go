package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of every instance",
	Long: `Show every instance in the matrix with the status read from its
output directory: whether the last run left errors, whether a state file
exists, and the resulting verdict.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusPaths bool

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusPaths, "paths", false, "show output directories")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(config.FlagOverrides{}, config.Selection{})
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

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := "BACKEND\tCOMPILER\tSUBJECT\tERRORS\tSTATE\tVERDICT"
	if statusPaths {
		header += "\tDIR"
	}
	fmt.Fprintln(w, header)
	for _, o := range summary.Outcomes {
		inst := o.Instance
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s",
			inst.Backend, inst.Compiler, inst.Subject.Name,
			yesNo(inst.HasErrors()), yesNo(inst.HasState()), o.Verdict)
		if statusPaths {
			fmt.Fprintf(w, "\t%s", inst.OutputDir())
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
