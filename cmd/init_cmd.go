package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an actrun.yaml template",
	Long: `Create an actrun.yaml template in the current directory.

The template includes commented examples for all configuration options.
With --global, write the global configuration template instead.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "overwrite existing file")
	initCmd.Flags().Bool("minimal", false, "write a template without comments")
	initCmd.Flags().Bool("global", false, "write ~/.config/actrun/config.yaml")
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	global, _ := cmd.Flags().GetBool("global")

	var target, content string
	if global {
		path, err := config.GlobalConfigPath()
		if err != nil {
			return err
		}
		if err := config.EnsureGlobalConfigDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		target, content = path, config.GlobalConfigTemplate
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		target = filepath.Join(cwd, config.ProjectConfigFilename)
		content = config.ProjectConfigTemplate
		if minimal {
			content = config.ProjectConfigMinimalTemplate
		}
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}
	}

	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", target)
	return nil
}
