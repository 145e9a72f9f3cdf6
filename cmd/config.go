package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Quidge/actrun/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long: `Inspect the actrun configuration.

Subcommands:
  show   Print the merged configuration
  path   Print the configuration files in use`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration",
	Long: `Print the configuration a run would use, after merging defaults, the
global file, the project file and flags. Paths are shown resolved.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		merged, err := loadMerged(config.FlagOverrides{})
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration files in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		global, err := config.GlobalConfigPath()
		if err != nil {
			return err
		}
		project := configPath
		if project == "" {
			if project, err = config.FindProjectConfig("."); err != nil {
				return err
			}
		}
		if project == "" {
			project = "(none)"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "global:  %s\n", global)
		fmt.Fprintf(out, "project: %s\n", project)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
