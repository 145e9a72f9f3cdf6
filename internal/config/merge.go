package config

import (
	"fmt"
	"time"
)

// FlagOverrides contains CLI flag values that override configuration.
type FlagOverrides struct {
	OutputDir string
	Timeout   time.Duration
	Jobs      int
	Executor  string
	StateDB   string
}

// Merge combines global config, project config, and CLI flag overrides
// following the precedence order: defaults → global → project → flags.
// Returns the merged configuration ready for use.
func Merge(global GlobalConfig, project ProjectConfig, flags FlagOverrides) (MergedConfig, error) {
	merged := MergedConfig{
		ProjectDir: project.Dir,
		Driver:     project.Driver,
		Backends:   project.Backends,
		Compilers:  project.Compilers,
		Shell:      global.Shell,
	}

	// Execution settings: global → project → flags
	merged.Timeout = global.Timeout
	if project.Timeout != 0 {
		merged.Timeout = project.Timeout
	}
	if flags.Timeout != 0 {
		merged.Timeout = flags.Timeout
	}

	merged.Jobs = global.Jobs
	if project.Jobs != 0 {
		merged.Jobs = project.Jobs
	}
	if flags.Jobs != 0 {
		merged.Jobs = flags.Jobs
	}

	merged.Executor = global.Executor
	if project.Executor != "" {
		merged.Executor = project.Executor
	}
	if flags.Executor != "" {
		merged.Executor = flags.Executor
	}

	// Paths from the project file resolve against its directory; flag
	// paths were given relative to where the user is standing.
	outputDir, err := ExpandPath(project.OutputDir, project.Dir)
	if err != nil {
		return MergedConfig{}, fmt.Errorf("failed to expand output_dir: %w", err)
	}
	if flags.OutputDir != "" {
		outputDir, err = ExpandPath(flags.OutputDir, ".")
		if err != nil {
			return MergedConfig{}, fmt.Errorf("failed to expand output directory: %w", err)
		}
	}
	merged.OutputDir = outputDir

	stateDB := global.StateDB
	if flags.StateDB != "" {
		stateDB = flags.StateDB
	}
	merged.StateDB, err = ExpandPath(stateDB, ".")
	if err != nil {
		return MergedConfig{}, fmt.Errorf("failed to expand state_db: %w", err)
	}

	if project.Subjects != nil {
		subjects, err := ExpandSubjects(project.Subjects, project.Dir)
		if err != nil {
			return MergedConfig{}, fmt.Errorf("failed to expand subjects: %w", err)
		}
		merged.Subjects = subjects
	}

	if project.Env != nil {
		expandedEnv, err := ExpandEnvMap(project.Env, project.Dir)
		if err != nil {
			return MergedConfig{}, fmt.Errorf("failed to expand environment variables: %w", err)
		}
		merged.Env = expandedEnv
	}

	return merged, nil
}

// Load loads both global and project configuration, then merges them
// with the provided flag overrides. An empty projectConfig searches upward
// from the current directory.
func Load(projectConfig string, flags FlagOverrides) (MergedConfig, error) {
	global, err := LoadGlobalConfig()
	if err != nil {
		return MergedConfig{}, fmt.Errorf("failed to load global config: %w", err)
	}

	project, err := LoadProjectConfig(projectConfig)
	if err != nil {
		return MergedConfig{}, fmt.Errorf("failed to load project config: %w", err)
	}

	return Merge(global, project, flags)
}
