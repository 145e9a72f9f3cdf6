package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Quidge/actrun/internal/executor"
	"github.com/Quidge/actrun/internal/harness"
	"github.com/Quidge/actrun/internal/ident"
)

// ErrNoDriver is returned when no driver template is configured, which
// usually means no actrun.yaml was found.
var ErrNoDriver = errors.New("no driver configured (is there an actrun.yaml?)")

// knownPlaceholders are the keys an instance supplies to the driver template.
var knownPlaceholders = []string{
	harness.KeyBackend,
	harness.KeyCompiler,
	harness.KeySubjectName,
	harness.KeySubjectPath,
	harness.KeyDir,
}

// Selection narrows a run to named backends, compilers and subjects.
// Empty lists select everything.
type Selection struct {
	Backends  []string
	Compilers []string
	Subjects  []string
}

// RunConfig is everything the batch runner needs, validated and typed.
// It combines the merged configuration with the CLI selection.
type RunConfig struct {
	// Env holds the subjects and driver. OutputDir is the run's root; the
	// runner gives each backend its own directory below it.
	Env *harness.Env

	Backends  []ident.ID
	Compilers []ident.ID

	// Environment contains expanded variables added to the driver's
	// environment.
	Environment map[string]string

	// Timeout bounds each driver invocation. Zero means no limit.
	Timeout time.Duration

	// Jobs is the number of instances run at once.
	Jobs int

	Executor executor.Config
	StateDB  string
}

// ValidateDriver checks that a driver template is well formed and only uses
// placeholders an instance can fill.
func ValidateDriver(driver string) error {
	if driver == "" {
		return ErrNoDriver
	}
	keys, err := harness.Placeholders(driver)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !slices.Contains(knownPlaceholders, k) {
			return fmt.Errorf("unknown placeholder {%s} in driver template", k)
		}
	}
	return nil
}

// ValidateSubjects checks that subjects have distinct, non-empty names and
// a path.
func ValidateSubjects(subjects []SubjectConfig) error {
	seen := make(map[string]bool, len(subjects))
	for i, s := range subjects {
		if s.Name == "" {
			return fmt.Errorf("subject %d: name is required", i)
		}
		if s.Path == "" {
			return fmt.Errorf("subject %s: path is required", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate subject name: %s", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// parseIDs parses identifiers, rejecting duplicates.
func parseIDs(kind string, raw []string) ([]ident.ID, error) {
	ids := make([]ident.ID, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		id, err := ident.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", kind, s, err)
		}
		if seen[id.String()] {
			return nil, fmt.Errorf("duplicate %s: %s", kind, id)
		}
		seen[id.String()] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// selectIDs keeps the IDs named in want, in their configured order.
func selectIDs(kind string, ids []ident.ID, want []string) ([]ident.ID, error) {
	if len(want) == 0 {
		return ids, nil
	}
	var out []ident.ID
	for _, w := range want {
		idx := slices.IndexFunc(ids, func(id ident.ID) bool { return id.String() == w })
		if idx < 0 {
			return nil, fmt.Errorf("%s %q is not configured", kind, w)
		}
	}
	for _, id := range ids {
		if slices.Contains(want, id.String()) {
			out = append(out, id)
		}
	}
	return out, nil
}

// NewRunConfig builds a RunConfig from a MergedConfig and a selection.
// It performs final validation of the matrix.
func NewRunConfig(merged MergedConfig, sel Selection) (RunConfig, error) {
	if err := ValidateDriver(merged.Driver); err != nil {
		return RunConfig{}, fmt.Errorf("invalid driver: %w", err)
	}
	if merged.OutputDir == "" {
		return RunConfig{}, fmt.Errorf("output directory is required")
	}
	if merged.Jobs < 1 {
		return RunConfig{}, fmt.Errorf("jobs must be at least 1, got %d", merged.Jobs)
	}
	if merged.Timeout < 0 {
		return RunConfig{}, fmt.Errorf("timeout must not be negative, got %s", merged.Timeout)
	}
	if err := ValidateSubjects(merged.Subjects); err != nil {
		return RunConfig{}, fmt.Errorf("invalid subjects: %w", err)
	}

	backends, err := parseIDs("backend", merged.Backends)
	if err != nil {
		return RunConfig{}, err
	}
	compilers, err := parseIDs("compiler", merged.Compilers)
	if err != nil {
		return RunConfig{}, err
	}
	if backends, err = selectIDs("backend", backends, sel.Backends); err != nil {
		return RunConfig{}, err
	}
	if compilers, err = selectIDs("compiler", compilers, sel.Compilers); err != nil {
		return RunConfig{}, err
	}

	var subjects []*harness.Subject
	for _, want := range sel.Subjects {
		if !slices.ContainsFunc(merged.Subjects, func(s SubjectConfig) bool { return s.Name == want }) {
			return RunConfig{}, fmt.Errorf("subject %q is not configured", want)
		}
	}
	for _, s := range merged.Subjects {
		if len(sel.Subjects) > 0 && !slices.Contains(sel.Subjects, s.Name) {
			continue
		}
		subjects = append(subjects, &harness.Subject{
			Name:   s.Name,
			Path:   s.Path,
			Header: s.Header,
		})
	}

	return RunConfig{
		Env: &harness.Env{
			Subjects:  subjects,
			Driver:    merged.Driver,
			OutputDir: merged.OutputDir,
		},
		Backends:    backends,
		Compilers:   compilers,
		Environment: merged.Env,
		Timeout:     merged.Timeout,
		Jobs:        merged.Jobs,
		Executor: executor.Config{
			Type:  merged.Executor,
			Shell: merged.Shell,
		},
		StateDB: merged.StateDB,
	}, nil
}
