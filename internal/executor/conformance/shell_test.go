//go:build conformance && shell

package conformance

import (
	"testing"

	"github.com/Quidge/actrun/internal/executor"
	_ "github.com/Quidge/actrun/internal/executor/shell" // Register shell executor
)

// TestShellConformance runs the conformance test suite against the shell executor.
//
// Run with: go test -tags=conformance,shell ./internal/executor/conformance
func TestShellConformance(t *testing.T) {
	ex, err := executor.Get(executor.Config{
		Type:  "shell",
		Shell: "/bin/sh",
	})
	if err != nil {
		t.Fatalf("failed to get shell executor: %v", err)
	}

	suite := &ConformanceSuite{Executor: ex}
	suite.Run(t)
}
