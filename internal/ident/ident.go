// Package ident provides qualified identifiers for backends and compilers.
//
// An identifier is a dot-separated sequence of elements, most general first:
//
//	gcc.x86.O2
//	herd.arm
//
// Identifiers render two ways: String rejoins the elements with dots for
// display and driver templates, and Dir produces a directory-safe segment.
package ident

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Separator joins identifier elements in the string rendering.
const Separator = "."

// DirSeparator joins identifier elements in the directory rendering.
const DirSeparator = "_"

var (
	// ErrEmpty is returned when parsing an empty identifier.
	ErrEmpty = errors.New("identifier is empty")

	// ErrInvalidElement is returned when an identifier element is empty or
	// contains a forbidden character.
	ErrInvalidElement = errors.New("invalid identifier element")
)

// ID is a qualified identifier. The zero value is the empty identifier.
type ID struct {
	elems []string
}

// Parse parses a dotted identifier such as "gcc.x86.O2".
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, ErrEmpty
	}
	elems := strings.Split(s, Separator)
	for i, e := range elems {
		if err := validateElement(e); err != nil {
			return ID{}, fmt.Errorf("%w %d in %q: %v", ErrInvalidElement, i, s, err)
		}
	}
	return ID{elems: elems}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func validateElement(e string) error {
	if e == "" {
		return errors.New("element is empty")
	}
	for _, r := range e {
		if unicode.IsSpace(r) {
			return fmt.Errorf("contains whitespace")
		}
		if r == '/' || r == '\\' {
			return fmt.Errorf("contains path separator %q", r)
		}
	}
	return nil
}

// Elements returns a copy of the identifier's elements.
func (id ID) Elements() []string {
	out := make([]string, len(id.elems))
	copy(out, id.elems)
	return out
}

// IsZero reports whether id is the empty identifier.
func (id ID) IsZero() bool {
	return len(id.elems) == 0
}

// String returns the dotted form of the identifier.
func (id ID) String() string {
	return strings.Join(id.elems, Separator)
}

// Dir returns a rendering of the identifier usable as a single path segment.
// Elements are escaped with EscapeSegment and joined with DirSeparator, so
// the result never contains DirSeparator except between elements and two
// distinct identifiers never share a Dir.
func (id ID) Dir() string {
	escaped := make([]string, len(id.elems))
	for i, e := range id.elems {
		escaped[i] = EscapeSegment(e)
	}
	return strings.Join(escaped, DirSeparator)
}

// Equal reports whether two identifiers have the same elements.
func (id ID) Equal(other ID) bool {
	if len(id.elems) != len(other.elems) {
		return false
	}
	for i := range id.elems {
		if id.elems[i] != other.elems[i] {
			return false
		}
	}
	return true
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, which also lets yaml.v3
// decode identifiers from plain scalars.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// EscapeSegment percent-encodes the bytes of s that would make it unsafe or
// ambiguous as part of an output directory name: DirSeparator, '%', path
// separators, and any byte outside printable ASCII. Plain names such as
// "gcc" or "O2" are returned unchanged.
func EscapeSegment(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if needsEscape(c) {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func needsEscape(c byte) bool {
	switch c {
	case '_', '%', '/', '\\':
		return true
	}
	return c <= ' ' || c >= 0x7f
}
