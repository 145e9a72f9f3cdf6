package harness

import (
	"github.com/Quidge/actrun/internal/pathutil"
)

// Subject is a named reference to one test input file. The file is owned
// elsewhere; the harness only checks that it exists.
type Subject struct {
	// Name is the litmus test name, used in output directory names.
	Name string

	// Path is the location of the test file.
	Path string

	// Header optionally points at a litmus header sidecar describing the
	// test's locations, initial state and postcondition.
	Header string
}

// Prepare checks that the subject's file exists. The check is repeated on
// every call.
func (s *Subject) Prepare() error {
	if !pathutil.ExistsAndIsFile(s.Path) {
		return &MissingFileError{Path: s.Path}
	}
	return nil
}

// DriverData returns the template values contributed by this subject.
func (s *Subject) DriverData() map[string]string {
	return map[string]string{
		KeySubjectName: s.Name,
		KeySubjectPath: s.Path,
	}
}
