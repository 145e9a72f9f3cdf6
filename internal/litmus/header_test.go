package litmus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("full header", func(t *testing.T) {
		h, err := Load(strings.NewReader(`{
			"locations": ["x", "y"],
			"init": {"x": 0, "y": 1},
			"postcondition": "exists (0:r0 == 0 /\\ 1:r0 == 0)"
		}`))
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if len(h.Locations) != 2 || h.Locations[0] != "x" || h.Locations[1] != "y" {
			t.Errorf("Locations = %v", h.Locations)
		}
		if h.Init["y"] != 1 {
			t.Errorf("Init[y] = %d, want 1", h.Init["y"])
		}
		if !h.HasPostcondition() {
			t.Error("expected postcondition")
		}
	})

	t.Run("null fields", func(t *testing.T) {
		h, err := Load(strings.NewReader(`{"locations": null, "init": null, "postcondition": null}`))
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if h.Locations != nil || h.Init != nil || h.HasPostcondition() {
			t.Errorf("expected empty header, got %+v", h)
		}
	})

	tests := []struct {
		name  string
		input string
	}{
		{"missing key", `{"locations": [], "init": {}}`},
		{"wrong type", `{"locations": "x", "init": {}, "postcondition": null}`},
		{"duplicate location", `{"locations": ["x", "x"], "init": {}, "postcondition": null}`},
		{"empty location", `{"locations": [""], "init": {}, "postcondition": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("expected ErrInvalidHeader, got %v", err)
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		if _, err := Load(strings.NewReader(`{`)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sb.json")
	if err := os.WriteFile(path, []byte(`{"locations": ["x"], "init": {"x": 0}, "postcondition": null}`), 0644); err != nil {
		t.Fatal(err)
	}

	h, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if len(h.Locations) != 1 {
		t.Errorf("Locations = %v", h.Locations)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRewriteLocals(t *testing.T) {
	post := func(s string) *string { return &s }
	rename := func(l LocalID) string { return fmt.Sprintf("t%d%s", l.Thread, l.Name) }

	tests := []struct {
		name string
		post *string
		want *string
	}{
		{"locals", post("exists (0:r0 == 0 /\\ 1:r1 == 0)"), post("exists (t0r0 == 0 /\\ t1r1 == 0)")},
		{"globals untouched", post("exists (x == 1 /\\ 0:r0 == 2)"), post("exists (x == 1 /\\ t0r0 == 2)")},
		{"digits inside names", post("exists (x1:r0 == 1)"), post("exists (x1:r0 == 1)")},
		{"no postcondition", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Header{Postcondition: tt.post}
			h.RewriteLocals(rename)
			switch {
			case tt.want == nil && h.Postcondition != nil:
				t.Errorf("Postcondition = %q, want nil", *h.Postcondition)
			case tt.want != nil && (h.Postcondition == nil || *h.Postcondition != *tt.want):
				t.Errorf("Postcondition = %v, want %q", h.Postcondition, *tt.want)
			}
		})
	}
}

func TestLocalIDString(t *testing.T) {
	if got := (LocalID{Thread: 2, Name: "r5"}).String(); got != "2:r5" {
		t.Errorf("String() = %q, want 2:r5", got)
	}
}
