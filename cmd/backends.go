package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/executor"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List executor types",
	Long: `List the executor types this build can run drivers with. The executor
is chosen with the "executor" key in actrun.yaml or --executor.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range executor.RegisteredTypes() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
