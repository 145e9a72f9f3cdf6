//go:build conformance

package conformance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Quidge/actrun/internal/executor"
	"github.com/Quidge/actrun/internal/harness"
	"github.com/Quidge/actrun/internal/ident"
)

// DefaultTimeout is the default timeout for test operations.
const DefaultTimeout = 30 * time.Second

// TestEnv wraps an executor with a bounded context and assertion helpers.
type TestEnv struct {
	T        *testing.T
	Executor executor.Executor
	Dir      string
	Ctx      context.Context
	Cancel   context.CancelFunc
}

// NewTestEnv creates a test environment with a scratch working directory.
// The context is cancelled when the test completes.
func NewTestEnv(t *testing.T, ex executor.Executor) *TestEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), DefaultTimeout)
	t.Cleanup(cancel)

	return &TestEnv{
		T:        t,
		Executor: ex,
		Dir:      t.TempDir(),
		Ctx:      ctx,
		Cancel:   cancel,
	}
}

// Exec runs command in the scratch directory.
func (e *TestEnv) Exec(command string) (harness.Result, error) {
	return e.Executor.Exec(e.Ctx, executor.Request{Command: command, Dir: e.Dir})
}

// MustExec runs a command and fails the test if it errors.
func (e *TestEnv) MustExec(command string) harness.Result {
	e.T.Helper()
	res, err := e.Exec(command)
	if err != nil {
		e.T.Fatalf("command %q failed: %v", command, err)
	}
	return res
}

// AssertExit fails if res does not carry the expected exit code.
func (e *TestEnv) AssertExit(res harness.Result, want int) {
	e.T.Helper()
	if res.ExitCode != want {
		e.T.Errorf("exit code: got %d, want %d (stderr %q)", res.ExitCode, want, res.Stderr)
	}
}

// NewTestInstance builds a prepared harness instance whose output directory
// lives under the scratch directory.
func (e *TestEnv) NewTestInstance(driver string) *harness.Instance {
	e.T.Helper()

	subjectPath := filepath.Join(e.Dir, "sb.litmus")
	if err := os.WriteFile(subjectPath, []byte("C sb\n"), 0644); err != nil {
		e.T.Fatalf("failed to create subject: %v", err)
	}
	sub := &harness.Subject{Name: "sb", Path: subjectPath}
	env := &harness.Env{
		Subjects:  []*harness.Subject{sub},
		Driver:    driver,
		OutputDir: filepath.Join(e.Dir, "out"),
	}
	if err := env.Prepare(); err != nil {
		e.T.Fatalf("env prepare failed: %v", err)
	}

	inst := &harness.Instance{
		Backend:  ident.MustParse("conformance.backend"),
		Compiler: ident.MustParse("conformance.cc"),
		Subject:  sub,
		Env:      env,
	}
	if err := inst.Prepare(); err != nil {
		e.T.Fatalf("instance prepare failed: %v", err)
	}
	return inst
}
