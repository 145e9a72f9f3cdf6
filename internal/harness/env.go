package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Quidge/actrun/internal/ident"
)

// Env is the part of a test configuration that doesn't change between
// machines: the subjects under test, the driver command template, and the
// output root that every instance's scratch directory lives under.
type Env struct {
	Subjects  []*Subject
	Driver    string
	OutputDir string
}

// Prepare creates the output directory if it doesn't exist yet, then checks
// every subject in order. The first subject failure aborts preparation.
// Calling Prepare again is harmless.
func (e *Env) Prepare() error {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, s := range e.Subjects {
		if err := s.Prepare(); err != nil {
			return fmt.Errorf("subject %s: %w", s.Name, err)
		}
	}
	return nil
}

// OutputDirFor returns the scratch directory for a subject and compiler:
//
//	<OutputDir>/<subject name>_<compiler dir>
//
// The subject part comes first. Both parts are escaped so that the join is
// unambiguous. The directory is not created.
func (e *Env) OutputDirFor(s *Subject, compiler ident.ID) string {
	name := ident.EscapeSegment(s.Name) + ident.DirSeparator + compiler.Dir()
	return filepath.Join(e.OutputDir, name)
}

// PopulateDriver renders the driver template into a shell command using the
// given placeholder values. The usual keys are:
//
//	backend       fully qualified ID of the simulator or other backend
//	compiler      fully qualified ID of the compiler under test
//	subject_name  litmus name of the test
//	subject_path  path to the test file
//	dir           the instance's output directory (already created)
//
// Rendering fails with a *TemplateError if the template names a placeholder
// missing from data or is malformed.
func (e *Env) PopulateDriver(data map[string]string) (string, error) {
	return renderTemplate(e.Driver, data)
}
