package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Quidge/actrun/internal/ident"
	"github.com/Quidge/actrun/internal/pathutil"
)

const (
	// ErrorFileName is the per-instance file holding the driver's stderr.
	ErrorFileName = "errors"

	// StateFileName is the per-instance file holding the driver's stdout
	// from the last successful run.
	StateFileName = "state.json"
)

// Result is the outcome of one driver invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the driver exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Instance is a single combination of backend, compiler, subject and
// environment. It holds no run state of its own; everything it knows about
// past runs is read back from its output directory.
type Instance struct {
	Backend  ident.ID
	Compiler ident.ID
	Subject  *Subject
	Env      *Env
}

// Name returns a semi-human-readable key for the instance's compiler and
// subject, for example "gcc.x86.O2!sb".
func (i *Instance) Name() string {
	return fmt.Sprintf("%s!%s", i.Compiler, i.Subject.Name)
}

func (i *Instance) String() string {
	return i.Name()
}

// OutputDir returns the directory for this instance's intermediate and final
// output.
func (i *Instance) OutputDir() string {
	return i.Env.OutputDirFor(i.Subject, i.Compiler)
}

// ErrorFile returns the path to which the driver's errors are written.
func (i *Instance) ErrorFile() string {
	return filepath.Join(i.OutputDir(), ErrorFileName)
}

// StateFile returns the path to which the driver's final state is written.
func (i *Instance) StateFile() string {
	return filepath.Join(i.OutputDir(), StateFileName)
}

// DriverData returns the template values for this instance. Env values are
// not included; PopulateDriver supplies the template itself.
func (i *Instance) DriverData() map[string]string {
	data := i.Subject.DriverData()
	data[KeyBackend] = i.Backend.String()
	data[KeyCompiler] = i.Compiler.String()
	data[KeyDir] = i.OutputDir()
	return data
}

// DriverCommand returns the fully rendered driver command for this instance.
func (i *Instance) DriverCommand() (string, error) {
	return i.Env.PopulateDriver(i.DriverData())
}

// Prepare resets the instance before a run attempt: it removes any error file
// left by a previous attempt, so a stale error is never read as the current
// result, and creates the output directory.
func (i *Instance) Prepare() error {
	if err := pathutil.RemoveIfExists(i.ErrorFile()); err != nil {
		return fmt.Errorf("failed to remove stale error file: %w", err)
	}
	if err := os.MkdirAll(i.OutputDir(), 0755); err != nil {
		return fmt.Errorf("failed to create instance directory: %w", err)
	}
	return nil
}

// RecordResult writes a completed driver run to the output directory.
// The error file is always written, even when stderr is empty. The state
// file is written only on success; a failed run leaves any previous state
// untouched.
func (i *Instance) RecordResult(res Result) error {
	if err := os.WriteFile(i.ErrorFile(), []byte(res.Stderr), 0644); err != nil {
		return fmt.Errorf("failed to write error file: %w", err)
	}
	if !res.Success() {
		return nil
	}
	if err := os.WriteFile(i.StateFile(), []byte(res.Stdout), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// HasErrors reports whether the last run left a non-empty error file.
// A missing or unreadable file counts as no errors.
func (i *Instance) HasErrors() bool {
	nonEmpty, err := pathutil.NonEmptyFile(i.ErrorFile())
	return err == nil && nonEmpty
}

// HasState reports whether a successful run has produced a state file.
func (i *Instance) HasState() bool {
	return pathutil.ExistsAndIsFile(i.StateFile())
}

// LogResult logs the exit status of a driver run on this instance.
func (i *Instance) LogResult(logger *zap.Logger, res Result) {
	if res.Success() {
		logger.Info("success", zap.String("instance", i.Name()))
		return
	}
	logger.Error("failed",
		zap.String("instance", i.Name()),
		zap.Int("exit_code", res.ExitCode),
		zap.String("details", i.ErrorFile()),
	)
}
