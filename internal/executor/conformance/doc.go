// Package conformance provides executor-agnostic conformance tests that
// verify executors implement the executor.Executor contract the harness
// relies on when classifying driver runs.
//
// # Running Conformance Tests
//
// Conformance tests are gated behind build tags and do not run with regular
// `go test`.
//
// Run shell executor conformance tests:
//
//	go test -tags=conformance,shell ./internal/executor/conformance
//
// # Adding a New Executor
//
// To add conformance tests for a new executor:
//
//  1. Create a new test file (e.g., container_test.go) with appropriate build tags:
//
//     //go:build conformance && container
//
//  2. Create the executor and run the suite:
//
//     func TestContainerConformance(t *testing.T) {
//     ex, _ := executor.Get(executor.Config{Type: "container"})
//     suite := &ConformanceSuite{Executor: ex}
//     suite.Run(t)
//     }
//
// # Test Categories
//
// The conformance suite tests:
//   - ExitCodes: zero and non-zero exits are results, not errors
//   - Output: stdout and stderr are captured separately and verbatim
//   - Environment: working directory and extra variables reach the command
//   - Deadlines: an expired context stops the command and wraps ErrTimeout
//   - Recording: results feed harness.Instance classification unchanged
package conformance
