// Package litmus loads litmus test headers: the part of a litmus test that
// isn't code. Headers are stored as JSON sidecar files next to the test.
package litmus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// Header describes a litmus test's observable locations, initial values and
// postcondition. Each field may be absent (null) in the source file.
type Header struct {
	Locations     []string         `json:"locations"`
	Init          map[string]int64 `json:"init"`
	Postcondition *string          `json:"postcondition"`
}

// requiredKeys must be present in every header, though their values may be
// null.
var requiredKeys = []string{"locations", "init", "postcondition"}

// ErrInvalidHeader is returned for headers that parse but are inconsistent.
var ErrInvalidHeader = errors.New("invalid litmus header")

// Load reads a header from r.
func Load(r io.Reader) (*Header, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}

	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrInvalidHeader, key)
		}
	}

	var h Header
	if err := json.Unmarshal(raw["locations"], &h.Locations); err != nil {
		return nil, fmt.Errorf("%w: locations: %v", ErrInvalidHeader, err)
	}
	if err := json.Unmarshal(raw["init"], &h.Init); err != nil {
		return nil, fmt.Errorf("%w: init: %v", ErrInvalidHeader, err)
	}
	if err := json.Unmarshal(raw["postcondition"], &h.Postcondition); err != nil {
		return nil, fmt.Errorf("%w: postcondition: %v", ErrInvalidHeader, err)
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// LoadFile reads a header from the file at path.
func LoadFile(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open header: %w", err)
	}
	defer f.Close()

	h, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Validate checks that locations are non-empty and unique.
func (h *Header) Validate() error {
	seen := make(map[string]bool, len(h.Locations))
	for i, loc := range h.Locations {
		if loc == "" {
			return fmt.Errorf("%w: location %d is empty", ErrInvalidHeader, i)
		}
		if seen[loc] {
			return fmt.Errorf("%w: duplicate location %q", ErrInvalidHeader, loc)
		}
		seen[loc] = true
	}
	return nil
}

// HasPostcondition reports whether the header carries a postcondition.
func (h *Header) HasPostcondition() bool {
	return h.Postcondition != nil && *h.Postcondition != ""
}

// LocalID names a thread-local variable, written "T:name" in a
// postcondition (for example "0:r0").
type LocalID struct {
	Thread int
	Name   string
}

func (l LocalID) String() string {
	return strconv.Itoa(l.Thread) + ":" + l.Name
}

var localIDPattern = regexp.MustCompile(`\b([0-9]+):([A-Za-z_][A-Za-z0-9_]*)`)

// RewriteLocals replaces every thread-local ID in the postcondition with
// the result of rewrite. Global locations are left unchanged. A header with
// no postcondition is not modified.
func (h *Header) RewriteLocals(rewrite func(LocalID) string) {
	if h.Postcondition == nil {
		return
	}
	post := localIDPattern.ReplaceAllStringFunc(*h.Postcondition, func(m string) string {
		sub := localIDPattern.FindStringSubmatch(m)
		thread, err := strconv.Atoi(sub[1])
		if err != nil {
			return m
		}
		return rewrite(LocalID{Thread: thread, Name: sub[2]})
	})
	h.Postcondition = &post
}
