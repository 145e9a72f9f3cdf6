package harness

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFile is returned when a subject's file does not exist.
	ErrMissingFile = errors.New("missing file")

	// ErrTemplate is returned when the driver template cannot be rendered.
	ErrTemplate = errors.New("driver template error")

	// ErrProcessExecution is returned when a driver process could not be
	// launched at all (as opposed to running and exiting non-zero).
	ErrProcessExecution = errors.New("driver process could not be executed")
)

// MissingFileError reports a subject path that does not reference an existing
// regular file.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFile.Error(), e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return ErrMissingFile
}

// TemplateError reports a driver template that references a placeholder not
// present in the data, or that is malformed.
type TemplateError struct {
	Template string
	// Key is the offending placeholder name; empty for syntax errors.
	Key    string
	Reason string
}

func (e *TemplateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s {%s} in %q", ErrTemplate.Error(), e.Reason, e.Key, e.Template)
	}
	return fmt.Sprintf("%s: %s in %q", ErrTemplate.Error(), e.Reason, e.Template)
}

func (e *TemplateError) Unwrap() error {
	return ErrTemplate
}

// ProcessExecutionError wraps the failure to launch a driver command.
// Callers convert it into a synthetic failed Result so that RecordResult and
// HasErrors behave the same as for a driver that ran and failed.
type ProcessExecutionError struct {
	Command string
	Err     error
}

func (e *ProcessExecutionError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrProcessExecution.Error(), e.Command, e.Err)
}

func (e *ProcessExecutionError) Unwrap() []error {
	return []error{ErrProcessExecution, e.Err}
}
