package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfigPath returns the path to the global configuration file.
func GlobalConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "actrun", "config.yaml"), nil
}

// LoadGlobalConfig loads the global configuration from ~/.config/actrun/config.yaml.
// If the file doesn't exist, returns default configuration (not an error).
// If the file exists but is invalid YAML, returns an error.
func LoadGlobalConfig() (GlobalConfig, error) {
	configPath, err := GlobalConfigPath()
	if err != nil {
		return DefaultGlobalConfig(), nil
	}
	return LoadGlobalConfigFrom(configPath)
}

// LoadGlobalConfigFrom loads the global configuration from configPath.
func LoadGlobalConfigFrom(configPath string) (GlobalConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultGlobalConfig(), nil
		}
		return GlobalConfig{}, fmt.Errorf("failed to read global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, fmt.Errorf("invalid YAML in %s: %w", configPath, err)
	}

	// Apply defaults for missing fields
	cfg = applyGlobalDefaults(cfg)

	return cfg, nil
}

// applyGlobalDefaults fills in missing fields with default values.
func applyGlobalDefaults(cfg GlobalConfig) GlobalConfig {
	defaults := DefaultGlobalConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = defaults.Jobs
	}
	if cfg.Executor == "" {
		cfg.Executor = defaults.Executor
	}

	return cfg
}

// EnsureGlobalConfigDir creates the global config directory if it doesn't exist.
func EnsureGlobalConfigDir() error {
	configPath, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}
