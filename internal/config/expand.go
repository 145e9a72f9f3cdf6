package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Quidge/actrun/internal/pathutil"
)

// envVarPattern matches ${VAR} or ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns in a string using environment variables.
// If a variable is not set, it expands to an empty string.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]

		// Handle default values: ${VAR:-default}
		if idx := strings.Index(varName, ":-"); idx != -1 {
			name := varName[:idx]
			defaultVal := varName[idx+2:]
			if val, ok := os.LookupEnv(name); ok {
				return val
			}
			return defaultVal
		}

		return os.Getenv(varName)
	})
}

// ExpandPath expands ${VAR} patterns and a leading ~, then resolves the result
// against baseDir. An empty path stays empty.
func ExpandPath(path, baseDir string) (string, error) {
	return pathutil.Resolve(baseDir, ExpandEnvVars(path))
}

// ReadFromFile reads the contents of a file and returns it as a string.
// The path is first expanded (~ expansion) before reading.
func ReadFromFile(path string) (string, error) {
	expandedPath, err := pathutil.ExpandTilde(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}

	// Trim trailing newlines (common in secret files)
	return strings.TrimRight(string(data), "\n\r"), nil
}

// ExpandEnvMap processes a map of EnvVar values, expanding environment
// variables and reading from_file references. Relative from_file paths are
// resolved against baseDir. Returns a map of string values.
func ExpandEnvMap(envVars map[string]EnvVar, baseDir string) (map[string]string, error) {
	result := make(map[string]string, len(envVars))

	for key, envVar := range envVars {
		var value string

		if envVar.FromFile != "" {
			path, err := ExpandPath(envVar.FromFile, baseDir)
			if err != nil {
				return nil, fmt.Errorf("failed to expand env var %s: %w", key, err)
			}
			value, err = ReadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to expand env var %s: %w", key, err)
			}
		} else {
			value = ExpandEnvVars(envVar.Value)
		}

		result[key] = value
	}

	return result, nil
}

// ExpandSubjects expands the file paths of subjects.
// Relative paths are resolved relative to baseDir (the directory
// containing the project config file).
func ExpandSubjects(subjects []SubjectConfig, baseDir string) ([]SubjectConfig, error) {
	result := make([]SubjectConfig, len(subjects))
	for i, s := range subjects {
		path, err := ExpandPath(s.Path, baseDir)
		if err != nil {
			return nil, fmt.Errorf("subject %d path: %w", i, err)
		}
		header, err := ExpandPath(s.Header, baseDir)
		if err != nil {
			return nil, fmt.Errorf("subject %d header: %w", i, err)
		}
		result[i] = SubjectConfig{
			Name:   s.Name,
			Path:   path,
			Header: header,
		}
	}
	return result, nil
}
