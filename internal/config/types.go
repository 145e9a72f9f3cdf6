package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents the global configuration loaded from
// ~/.config/actrun/config.yaml
type GlobalConfig struct {
	Version  int           `yaml:"version"`
	Shell    string        `yaml:"shell,omitempty"`
	StateDB  string        `yaml:"state_db,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
	Jobs     int           `yaml:"jobs"`
	Executor string        `yaml:"executor"`
}

// ProjectConfig represents the project configuration loaded from
// actrun.yaml, found by walking up from the working directory.
type ProjectConfig struct {
	Version   int               `yaml:"version"`
	OutputDir string            `yaml:"output_dir"`
	Driver    string            `yaml:"driver"`
	Backends  []string          `yaml:"backends"`
	Compilers []string          `yaml:"compilers"`
	Subjects  []SubjectConfig   `yaml:"subjects"`
	Env       map[string]EnvVar `yaml:"env,omitempty"`
	Timeout   time.Duration     `yaml:"timeout,omitempty"`
	Jobs      int               `yaml:"jobs,omitempty"`
	Executor  string            `yaml:"executor,omitempty"`

	// Dir is the directory containing the config file. Relative paths in
	// the file are resolved against it.
	Dir string `yaml:"-"`
}

// SubjectConfig names one litmus test file.
type SubjectConfig struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Header string `yaml:"header,omitempty"`
}

// EnvVar represents an environment variable passed to the driver.
// It can be either a literal string or a from_file reference.
type EnvVar struct {
	Value    string // Literal value (after expansion)
	FromFile string // Path to file containing value
}

// UnmarshalYAML implements custom unmarshaling for EnvVar to handle
// both string values and {from_file: path} objects.
func (e *EnvVar) UnmarshalYAML(value *yaml.Node) error {
	// Try unmarshaling as a simple string first
	var str string
	if err := value.Decode(&str); err == nil {
		e.Value = str
		return nil
	}

	var obj struct {
		FromFile string `yaml:"from_file"`
	}
	if err := value.Decode(&obj); err != nil {
		return err
	}
	e.FromFile = obj.FromFile
	return nil
}

// MarshalYAML writes an EnvVar back in the form it was read.
func (e EnvVar) MarshalYAML() (any, error) {
	if e.FromFile != "" {
		return map[string]string{"from_file": e.FromFile}, nil
	}
	return e.Value, nil
}

// MergedConfig represents the final merged configuration
// after applying precedence rules (defaults → global → project → flags).
// Paths are absolute.
type MergedConfig struct {
	ProjectDir string            `yaml:"project_dir"`
	OutputDir  string            `yaml:"output_dir"`
	Driver     string            `yaml:"driver"`
	Backends   []string          `yaml:"backends"`
	Compilers  []string          `yaml:"compilers"`
	Subjects   []SubjectConfig   `yaml:"subjects"`
	Env        map[string]string `yaml:"env,omitempty"`
	Timeout    time.Duration     `yaml:"timeout"`
	Jobs       int               `yaml:"jobs"`
	Executor   string            `yaml:"executor"`
	Shell      string            `yaml:"shell,omitempty"`
	StateDB    string            `yaml:"state_db,omitempty"`
}

// DefaultTimeout bounds a single driver invocation when nothing else is
// configured.
const DefaultTimeout = 5 * time.Minute

// DefaultGlobalConfig returns a GlobalConfig with sensible defaults.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Version:  1,
		Timeout:  DefaultTimeout,
		Jobs:     1,
		Executor: "shell",
	}
}

// DefaultProjectConfig returns a ProjectConfig with sensible defaults.
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:   1,
		OutputDir: "out",
	}
}
