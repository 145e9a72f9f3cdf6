// Package runs provides the `actrun runs` command group for browsing run history.
package runs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Quidge/actrun/internal/config"
	"github.com/Quidge/actrun/internal/state"
)

// Cmd is the parent command for run history.
var Cmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse run history",
	Long: `Browse the runs recorded in the history database.

Every "actrun run" records the verdict it saw for each instance. The output
directories stay the source of truth; history only remembers.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
}

// openDB opens the history database named by --state-db, falling back to
// the global configuration and then the default location.
func openDB(cmd *cobra.Command) (*state.DB, error) {
	path := ""
	if f := cmd.Flag("state-db"); f != nil {
		path = f.Value.String()
	}
	if path == "" {
		global, err := config.LoadGlobalConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load global config: %w", err)
		}
		path = global.StateDB
	}
	path, err := config.ExpandPath(path, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to expand state_db: %w", err)
	}

	db, err := state.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return db, nil
}
