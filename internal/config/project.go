package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFilename is the name of the project configuration file.
const ProjectConfigFilename = "actrun.yaml"

// FindProjectConfig searches for an actrun.yaml file starting from the given
// directory and walking up to parent directories until it finds one or reaches
// the filesystem root.
func FindProjectConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}
	for {
		configPath := filepath.Join(dir, ProjectConfigFilename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// LoadProjectConfig loads the project configuration from actrun.yaml.
// If configPath is empty, searches from the current directory.
// If the file doesn't exist, returns default configuration rooted at the
// current directory (not an error).
// If the file exists but is invalid YAML, returns an error.
func LoadProjectConfig(configPath string) (ProjectConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	if configPath == "" {
		configPath, err = FindProjectConfig(cwd)
		if err != nil || configPath == "" {
			return defaultProjectConfigIn(cwd), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultProjectConfigIn(cwd), nil
		}
		return ProjectConfig{}, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("invalid YAML in %s: %w", configPath, err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("failed to resolve %s: %w", configPath, err)
	}
	cfg.Dir = filepath.Dir(absPath)

	// Apply defaults for missing fields
	cfg = applyProjectDefaults(cfg)

	return cfg, nil
}

func defaultProjectConfigIn(dir string) ProjectConfig {
	cfg := DefaultProjectConfig()
	cfg.Dir = dir
	return cfg
}

// LoadProjectConfigFromDir loads the project configuration from a specific directory.
func LoadProjectConfigFromDir(dir string) (ProjectConfig, error) {
	configPath := filepath.Join(dir, ProjectConfigFilename)
	return LoadProjectConfig(configPath)
}

// applyProjectDefaults fills in missing fields with default values.
func applyProjectDefaults(cfg ProjectConfig) ProjectConfig {
	defaults := DefaultProjectConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}

	return cfg
}

// ProjectConfigExists checks if an actrun.yaml file exists in the given directory.
func ProjectConfigExists(dir string) bool {
	configPath := filepath.Join(dir, ProjectConfigFilename)
	_, err := os.Stat(configPath)
	return err == nil
}
