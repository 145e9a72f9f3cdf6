//go:build conformance

package conformance

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Quidge/actrun/internal/executor"
)

// ConformanceSuite defines all conformance tests for any Executor
// implementation.
type ConformanceSuite struct {
	// Executor under test.
	Executor executor.Executor
}

// Run executes all conformance tests.
func (s *ConformanceSuite) Run(t *testing.T) {
	t.Run("ExitCodes", s.testExitCodes)
	t.Run("Output", s.testOutput)
	t.Run("Environment", s.testEnvironment)
	t.Run("Deadlines", s.testDeadlines)
	t.Run("Recording", s.testRecording)
}

func (s *ConformanceSuite) testExitCodes(t *testing.T) {
	t.Run("Zero", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		env.AssertExit(env.MustExec("true"), 0)
	})

	t.Run("NonZeroIsNotAnError", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		res, err := env.Exec("exit 3")
		if err != nil {
			t.Fatalf("non-zero exit must not be an error: %v", err)
		}
		env.AssertExit(res, 3)
	})
}

func (s *ConformanceSuite) testOutput(t *testing.T) {
	t.Run("Separated", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		res := env.MustExec(`printf '{"x":1}'; printf 'warn' >&2`)
		if res.Stdout != `{"x":1}` {
			t.Errorf("stdout: got %q", res.Stdout)
		}
		if res.Stderr != "warn" {
			t.Errorf("stderr: got %q", res.Stderr)
		}
	})

	t.Run("Verbatim", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		res := env.MustExec(`printf 'line1\n\nline3\n'`)
		if res.Stdout != "line1\n\nline3\n" {
			t.Errorf("stdout must not be trimmed: got %q", res.Stdout)
		}
	})

	t.Run("OutputOnFailure", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		res := env.MustExec(`printf partial; printf boom >&2; exit 1`)
		env.AssertExit(res, 1)
		if res.Stderr != "boom" {
			t.Errorf("stderr: got %q", res.Stderr)
		}
	})
}

func (s *ConformanceSuite) testEnvironment(t *testing.T) {
	t.Run("WorkingDirectory", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		env.MustExec("printf x > marker")
		if _, err := os.Stat(env.Dir + "/marker"); err != nil {
			t.Errorf("command did not run in %s: %v", env.Dir, err)
		}
	})

	t.Run("ExtraVariables", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		res, err := s.Executor.Exec(env.Ctx, executor.Request{
			Command:     `printf '%s' "$DRIVER_FLAG"`,
			Environment: map[string]string{"DRIVER_FLAG": "it's got 'quotes' and $NOT_EXPANDED"},
		})
		if err != nil {
			t.Fatalf("Exec() error: %v", err)
		}
		if res.Stdout != "it's got 'quotes' and $NOT_EXPANDED" {
			t.Errorf("stdout: got %q", res.Stdout)
		}
	})
}

func (s *ConformanceSuite) testDeadlines(t *testing.T) {
	t.Run("ExpiredContext", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		ctx, cancel := context.WithTimeout(env.Ctx, 200*time.Millisecond)
		defer cancel()

		res, err := s.Executor.Exec(ctx, executor.Request{Command: "sleep 30"})
		if !errors.Is(err, executor.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		if res.Success() {
			t.Error("timed out command must not report success")
		}
	})
}

// testRecording checks that executor results classify correctly when fed
// to a harness instance.
func (s *ConformanceSuite) testRecording(t *testing.T) {
	t.Run("SuccessWritesState", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		inst := env.NewTestInstance(`printf '{{"x":1}}'`)

		cmd, err := inst.DriverCommand()
		if err != nil {
			t.Fatalf("DriverCommand() error: %v", err)
		}
		if err := inst.RecordResult(env.MustExec(cmd)); err != nil {
			t.Fatalf("RecordResult() error: %v", err)
		}
		if inst.HasErrors() {
			t.Error("expected no errors")
		}
		data, err := os.ReadFile(inst.StateFile())
		if err != nil {
			t.Fatalf("state file: %v", err)
		}
		if string(data) != `{"x":1}` {
			t.Errorf("state: got %q", data)
		}
	})

	t.Run("FailureWritesErrors", func(t *testing.T) {
		env := NewTestEnv(t, s.Executor)
		inst := env.NewTestInstance(`printf 'cannot compile {subject_name}' >&2; exit 1`)

		cmd, err := inst.DriverCommand()
		if err != nil {
			t.Fatalf("DriverCommand() error: %v", err)
		}
		if err := inst.RecordResult(env.MustExec(cmd)); err != nil {
			t.Fatalf("RecordResult() error: %v", err)
		}
		if !inst.HasErrors() {
			t.Error("expected errors")
		}
		data, _ := os.ReadFile(inst.ErrorFile())
		if !strings.Contains(string(data), "cannot compile sb") {
			t.Errorf("errors: got %q", data)
		}
		if inst.HasState() {
			t.Error("failed run must not write state")
		}
	})
}
