package cmd

import (
	"fmt"

	"github.com/Quidge/actrun/internal/config"
	"github.com/Quidge/actrun/internal/executor"
	_ "github.com/Quidge/actrun/internal/executor/shell" // Register shell executor
	"github.com/Quidge/actrun/internal/runner"
	"github.com/Quidge/actrun/internal/state"
)

// loadMerged loads global and project configuration with flag overrides.
func loadMerged(flags config.FlagOverrides) (config.MergedConfig, error) {
	flags.StateDB = stateDB
	merged, err := config.Load(configPath, flags)
	if err != nil {
		return config.MergedConfig{}, err
	}
	logger.Debug("loaded configuration")
	return merged, nil
}

// loadRunConfig loads and validates everything a batch needs.
func loadRunConfig(flags config.FlagOverrides, sel config.Selection) (config.RunConfig, error) {
	merged, err := loadMerged(flags)
	if err != nil {
		return config.RunConfig{}, err
	}
	return config.NewRunConfig(merged, sel)
}

// newRunner builds a Runner for cfg. db may be nil.
func newRunner(cfg config.RunConfig, db *state.DB) (*runner.Runner, error) {
	ex, err := executor.Get(cfg.Executor)
	if err != nil {
		return nil, fmt.Errorf("failed to get executor: %w", err)
	}
	return runner.New(cfg, ex, db, logger), nil
}
