// Package shell implements the shell executor, which runs driver commands
// on the host through a POSIX shell:
//
//	$SHELL -c '<rendered driver command>'
//
// Stdout and stderr are captured separately. When the context expires the
// whole process group is killed, so drivers that fork simulators do not
// outlive their deadline.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"syscall"
	"time"

	"github.com/Quidge/actrun/internal/executor"
	"github.com/Quidge/actrun/internal/harness"
	"github.com/Quidge/actrun/internal/pathutil"
)

const (
	// ExecutorType is the identifier for this executor type.
	ExecutorType = "shell"

	// defaultShell is used when neither the config nor $SHELL name one.
	defaultShell = "/bin/sh"

	// waitDelay bounds how long Exec waits for output pipes after the
	// process group has been killed.
	waitDelay = 5 * time.Second
)

// Executor implements executor.Executor by running commands with a shell.
type Executor struct {
	// Shell is the interpreter invoked as `Shell -c command`.
	Shell string
}

// Ensure Executor implements executor.Executor.
var _ executor.Executor = (*Executor)(nil)

// New creates a shell executor.
func New(cfg executor.Config) (executor.Executor, error) {
	return &Executor{Shell: resolveShell(cfg.Shell)}, nil
}

func init() {
	executor.Register(ExecutorType, New)
}

// resolveShell picks the configured shell, then $SHELL, then /bin/sh.
func resolveShell(configured string) string {
	if configured != "" {
		return configured
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return defaultShell
}

// Exec runs req.Command and waits for it to exit.
func (e *Executor) Exec(ctx context.Context, req executor.Request) (harness.Result, error) {
	if req.Dir != "" && !pathutil.ExistsAndIsDir(req.Dir) {
		return harness.Result{}, &harness.ProcessExecutionError{
			Command: req.Command,
			Err:     fmt.Errorf("working directory not found: %s", req.Dir),
		}
	}

	cmd := exec.CommandContext(ctx, e.Shell, "-c", req.Command)
	cmd.Dir = req.Dir
	cmd.Env = buildEnv(req.Environment)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Run in a new process group so cancellation reaches grandchildren.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	res := harness.Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil && ctx.Err() != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%w: %w", executor.ErrTimeout, ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return harness.Result{}, &harness.ProcessExecutionError{Command: req.Command, Err: err}
	}

	return res, nil
}

// buildEnv returns the inherited environment with extra appended in sorted
// key order, so later entries override inherited ones.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	if len(extra) == 0 {
		return env
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
