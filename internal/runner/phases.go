package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Quidge/actrun/internal/executor"
	"github.com/Quidge/actrun/internal/harness"
	"github.com/Quidge/actrun/internal/litmus"
	"github.com/Quidge/actrun/internal/state"
)

var (
	_ harness.Runner = (*RunPhase)(nil)
	_ harness.Runner = (*CheckPhase)(nil)
)

// SyntheticExitCode is recorded for drivers that never produced an exit
// status of their own: they failed to launch or ran out of time.
const SyntheticExitCode = -1

// RunPhase runs an instance's driver and records the result in its output
// directory.
type RunPhase struct {
	harness.PhaseBase

	Executor    executor.Executor
	Timeout     time.Duration // zero means no limit
	Environment map[string]string
	Logger      *zap.Logger

	result   harness.Result
	duration time.Duration
}

// NewRunPhase returns a RunPhase for inst that executes through ex.
func NewRunPhase(inst *harness.Instance, ex executor.Executor, logger *zap.Logger) *RunPhase {
	return &RunPhase{
		PhaseBase: harness.NewPhaseBase(inst),
		Executor:  ex,
		Logger:    logger,
	}
}

// Run renders the driver, prepares the instance, executes the driver and
// records what came back. A driver that fails, cannot be launched or times
// out is still a recorded result, not an error. Run returns an error only
// when the template could not be rendered, the instance could not be
// prepared, the result could not be written, or ctx was cancelled by the
// caller. A cancelled attempt is recorded as interrupted before Run returns.
//
// Rendering happens before Prepare so that a template error leaves the
// previous attempt's error file in place.
func (p *RunPhase) Run(ctx context.Context) error {
	inst := p.Instance()
	cmd, err := inst.DriverCommand()
	if err != nil {
		return fmt.Errorf("failed to render driver for %s: %w", p, err)
	}

	if err := inst.Prepare(); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", p, err)
	}

	execCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	p.Logger.Debug("running driver",
		zap.String("instance", p.String()),
		zap.String("backend", p.Backend().String()),
		zap.String("command", cmd),
	)

	start := time.Now()
	res, err := p.Executor.Exec(execCtx, executor.Request{
		Command:     cmd,
		Environment: p.Environment,
	})
	p.duration = time.Since(start)

	if err != nil {
		// Cancellation from above aborts the batch, but the prepared
		// instance must not be left looking like its last success.
		if ctxErr := ctx.Err(); ctxErr != nil {
			if rerr := p.record(interrupted(res)); rerr != nil {
				return errors.Join(ctxErr, rerr)
			}
			return ctxErr
		}
		res, err = p.synthesize(res, err)
		if err != nil {
			return err
		}
	}
	return p.record(res)
}

func (p *RunPhase) record(res harness.Result) error {
	p.result = res
	inst := p.Instance()
	if err := inst.RecordResult(res); err != nil {
		return fmt.Errorf("failed to record result for %s: %w", p, err)
	}
	inst.LogResult(p.Logger, res)
	return nil
}

// interrupted marks a partial result as stopped by the caller.
func interrupted(partial harness.Result) harness.Result {
	return harness.Result{
		ExitCode: SyntheticExitCode,
		Stdout:   partial.Stdout,
		Stderr:   withNewline(partial.Stderr) + "actrun: run interrupted\n",
	}
}

func withNewline(s string) string {
	if s != "" && !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

// synthesize turns an executor failure into a failed result whose stderr
// explains what happened.
func (p *RunPhase) synthesize(partial harness.Result, err error) (harness.Result, error) {
	var execErr *harness.ProcessExecutionError
	switch {
	case errors.As(err, &execErr):
		return harness.Result{
			ExitCode: SyntheticExitCode,
			Stderr:   fmt.Sprintf("actrun: failed to launch driver: %v\n", execErr.Err),
		}, nil
	case errors.Is(err, executor.ErrTimeout):
		return harness.Result{
			ExitCode: SyntheticExitCode,
			Stdout:   partial.Stdout,
			Stderr:   withNewline(partial.Stderr) + fmt.Sprintf("actrun: driver timed out after %s\n", p.Timeout),
		}, nil
	default:
		return harness.Result{}, fmt.Errorf("failed to run driver for %s: %w", p, err)
	}
}

// Result returns the result of the last Run.
func (p *RunPhase) Result() harness.Result { return p.result }

// Duration returns how long the driver ran in the last Run.
func (p *RunPhase) Duration() time.Duration { return p.duration }

// CheckPhase judges an instance's last run purely from its output directory.
type CheckPhase struct {
	harness.PhaseBase

	// Header, if set, lists locations the state must contain.
	Header *litmus.Header

	verdict state.Verdict
	reason  string
}

// NewCheckPhase returns a CheckPhase for inst.
func NewCheckPhase(inst *harness.Instance, header *litmus.Header) *CheckPhase {
	return &CheckPhase{
		PhaseBase: harness.NewPhaseBase(inst),
		Header:    header,
	}
}

// Run reads the error and state files and sets the verdict. It fails only if
// the state file exists but cannot be read.
func (p *CheckPhase) Run(ctx context.Context) error {
	p.verdict, p.reason = "", ""

	if p.Instance().HasErrors() {
		p.verdict, p.reason = state.VerdictError, "see "+p.ErrorFile()
		return nil
	}

	data, err := os.ReadFile(p.StateFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.verdict, p.reason = state.VerdictMissing, "no state file"
			return nil
		}
		return fmt.Errorf("failed to read state for %s: %w", p, err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		p.verdict, p.reason = state.VerdictInvalid, "state is not a JSON object"
		return nil
	}

	if p.Header != nil {
		for _, loc := range p.Header.Locations {
			if _, ok := obj[loc]; !ok {
				p.verdict, p.reason = state.VerdictInvalid, fmt.Sprintf("state has no location %q", loc)
				return nil
			}
		}
	}

	p.verdict = state.VerdictPass
	return nil
}

// Verdict returns the verdict of the last Run.
func (p *CheckPhase) Verdict() state.Verdict { return p.verdict }

// Reason explains a non-pass verdict.
func (p *CheckPhase) Reason() string { return p.reason }
