// Package executor defines how rendered driver commands are run. The harness
// itself never launches processes; a phase hands the instance's driver
// command to an Executor and records whatever comes back.
package executor

import (
	"context"
	"errors"

	"github.com/Quidge/actrun/internal/harness"
)

// Executor runs one driver command to completion.
//
// Exec distinguishes three outcomes:
//
//	| Outcome                    | Result            | error                           |
//	|----------------------------|-------------------|---------------------------------|
//	| Command ran, any exit code | exit code, output | nil                             |
//	| Command could not start    | zero value        | *harness.ProcessExecutionError  |
//	| Context done before exit   | partial output    | wraps ctx.Err() (ErrTimeout)    |
//
// A non-zero exit is a normal result, not an error.
type Executor interface {
	Exec(ctx context.Context, req Request) (harness.Result, error)
}

// Request describes one command execution.
type Request struct {
	// Command is the rendered driver command.
	Command string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Environment holds extra variables added to the inherited environment.
	Environment map[string]string
}

// ErrTimeout is wrapped by executors when the command is stopped because its
// context expired.
var ErrTimeout = errors.New("driver timed out")
