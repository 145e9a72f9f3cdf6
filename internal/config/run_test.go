package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Quidge/actrun/internal/executor"
	"github.com/Quidge/actrun/internal/harness"
)

func validMerged() MergedConfig {
	return MergedConfig{
		ProjectDir: "/proj",
		OutputDir:  "/proj/out",
		Driver:     "drive -b {backend} -c {compiler} -o {dir} {subject_path}",
		Backends:   []string{"herd.x86", "herd.arm"},
		Compilers:  []string{"gcc.x86.O2", "clang.x86.O3"},
		Subjects: []SubjectConfig{
			{Name: "sb", Path: "/proj/sb.litmus", Header: "/proj/sb.json"},
			{Name: "mp", Path: "/proj/mp.litmus"},
		},
		Env:      map[string]string{"K": "v"},
		Timeout:  time.Minute,
		Jobs:     2,
		Executor: "shell",
		Shell:    "/bin/sh",
		StateDB:  "/tmp/state.db",
	}
}

func TestValidateDriver(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		wantErr string
	}{
		{"all keys", "x {backend} {compiler} {subject_name} {subject_path} {dir}", ""},
		{"no keys", "true", ""},
		{"literal braces", `printf '{{"ok":1}}'`, ""},
		{"empty", "", "no driver configured"},
		{"unknown key", "x {flavour}", "unknown placeholder {flavour}"},
		{"unclosed", "x {backend", "unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDriver(tt.driver)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if !errors.Is(ValidateDriver(""), ErrNoDriver) {
		t.Error("empty driver should be ErrNoDriver")
	}
}

func TestValidateSubjects(t *testing.T) {
	tests := []struct {
		name     string
		subjects []SubjectConfig
		wantErr  bool
	}{
		{"valid", []SubjectConfig{{Name: "a", Path: "/a"}, {Name: "b", Path: "/b"}}, false},
		{"empty list", nil, false},
		{"missing name", []SubjectConfig{{Path: "/a"}}, true},
		{"missing path", []SubjectConfig{{Name: "a"}}, true},
		{"duplicate", []SubjectConfig{{Name: "a", Path: "/a"}, {Name: "a", Path: "/b"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubjects(tt.subjects)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubjects() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRunConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg, err := NewRunConfig(validMerged(), Selection{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantSubjects := []*harness.Subject{
			{Name: "sb", Path: "/proj/sb.litmus", Header: "/proj/sb.json"},
			{Name: "mp", Path: "/proj/mp.litmus"},
		}
		if diff := cmp.Diff(wantSubjects, cfg.Env.Subjects); diff != "" {
			t.Errorf("subjects mismatch (-want +got):\n%s", diff)
		}
		if cfg.Env.OutputDir != "/proj/out" {
			t.Errorf("expected output dir /proj/out, got %q", cfg.Env.OutputDir)
		}
		if got := idStrings(cfg.Backends); !cmp.Equal(got, []string{"herd.x86", "herd.arm"}) {
			t.Errorf("backends = %v", got)
		}
		if got := idStrings(cfg.Compilers); !cmp.Equal(got, []string{"gcc.x86.O2", "clang.x86.O3"}) {
			t.Errorf("compilers = %v", got)
		}
		if diff := cmp.Diff(executor.Config{Type: "shell", Shell: "/bin/sh"}, cfg.Executor); diff != "" {
			t.Errorf("executor mismatch (-want +got):\n%s", diff)
		}
		if cfg.Jobs != 2 || cfg.Timeout != time.Minute || cfg.StateDB != "/tmp/state.db" {
			t.Errorf("unexpected settings: jobs=%d timeout=%s state=%q", cfg.Jobs, cfg.Timeout, cfg.StateDB)
		}
		if cfg.Environment["K"] != "v" {
			t.Errorf("environment = %v", cfg.Environment)
		}
	})

	t.Run("selection keeps configured order", func(t *testing.T) {
		sel := Selection{
			Backends:  []string{"herd.arm"},
			Compilers: []string{"clang.x86.O3", "gcc.x86.O2"},
			Subjects:  []string{"mp"},
		}
		cfg, err := NewRunConfig(validMerged(), sel)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := idStrings(cfg.Backends); !cmp.Equal(got, []string{"herd.arm"}) {
			t.Errorf("backends = %v", got)
		}
		if got := idStrings(cfg.Compilers); !cmp.Equal(got, []string{"gcc.x86.O2", "clang.x86.O3"}) {
			t.Errorf("compilers = %v", got)
		}
		if len(cfg.Env.Subjects) != 1 || cfg.Env.Subjects[0].Name != "mp" {
			t.Errorf("subjects = %v", cfg.Env.Subjects)
		}
	})

	errorCases := []struct {
		name   string
		modify func(*MergedConfig)
		sel    Selection
	}{
		{"no driver", func(m *MergedConfig) { m.Driver = "" }, Selection{}},
		{"bad placeholder", func(m *MergedConfig) { m.Driver = "x {nope}" }, Selection{}},
		{"no output dir", func(m *MergedConfig) { m.OutputDir = "" }, Selection{}},
		{"zero jobs", func(m *MergedConfig) { m.Jobs = 0 }, Selection{}},
		{"negative timeout", func(m *MergedConfig) { m.Timeout = -time.Second }, Selection{}},
		{"bad backend", func(m *MergedConfig) { m.Backends = []string{"herd..x86"} }, Selection{}},
		{"duplicate compiler", func(m *MergedConfig) { m.Compilers = []string{"gcc", "gcc"} }, Selection{}},
		{"duplicate subject", func(m *MergedConfig) {
			m.Subjects = append(m.Subjects, SubjectConfig{Name: "sb", Path: "/x"})
		}, Selection{}},
		{"unknown selected backend", func(*MergedConfig) {}, Selection{Backends: []string{"herd.power"}}},
		{"unknown selected compiler", func(*MergedConfig) {}, Selection{Compilers: []string{"icc"}}},
		{"unknown selected subject", func(*MergedConfig) {}, Selection{Subjects: []string{"iriw"}}},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			merged := validMerged()
			tt.modify(&merged)
			if _, err := NewRunConfig(merged, tt.sel); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func idStrings[T interface{ String() string }](ids []T) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
