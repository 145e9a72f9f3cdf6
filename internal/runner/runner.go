// Package runner drives a whole test matrix: every backend, compiler and
// subject combination is prepared, run through the driver, and judged from
// its output directory. Outcomes are optionally recorded in the state store.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Quidge/actrun/internal/config"
	"github.com/Quidge/actrun/internal/executor"
	"github.com/Quidge/actrun/internal/harness"
	"github.com/Quidge/actrun/internal/litmus"
	"github.com/Quidge/actrun/internal/state"
)

// ErrCollision is returned when two instances would share an output
// directory.
var ErrCollision = errors.New("output directory collision")

// Outcome is what happened to one instance.
type Outcome struct {
	Instance *harness.Instance
	Verdict  state.Verdict
	Reason   string

	// Result and Duration are zero for check-only passes.
	Result   harness.Result
	Duration time.Duration
}

// OK reports whether the instance passed.
func (o Outcome) OK() bool { return o.Verdict == state.VerdictPass }

// Summary collects the outcomes of a batch in matrix order.
type Summary struct {
	// RunID is empty when no state store is attached or for check-only
	// passes.
	RunID    string
	Outcomes []Outcome
}

// Counts returns the number of instances per verdict.
func (s *Summary) Counts() map[state.Verdict]int {
	counts := make(map[state.Verdict]int, len(state.ValidVerdicts))
	for _, o := range s.Outcomes {
		counts[o.Verdict]++
	}
	return counts
}

// Failed returns the number of instances that did not pass.
func (s *Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Runner executes a RunConfig's matrix.
type Runner struct {
	cfg    config.RunConfig
	exec   executor.Executor
	db     *state.DB
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Runner. db may be nil, in which case nothing is recorded.
func New(cfg config.RunConfig, ex executor.Executor, db *state.DB, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		exec:   ex,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Envs returns one Env per backend, each rooted in its own directory below
// the configured output directory, in backend order.
func (r *Runner) Envs() []*harness.Env {
	envs := make([]*harness.Env, len(r.cfg.Backends))
	for i, b := range r.cfg.Backends {
		envs[i] = &harness.Env{
			Subjects:  r.cfg.Env.Subjects,
			Driver:    r.cfg.Env.Driver,
			OutputDir: filepath.Join(r.cfg.Env.OutputDir, b.Dir()),
		}
	}
	return envs
}

// Matrix returns every instance in (backend, compiler, subject) order.
// It fails with ErrCollision if two instances map to the same output
// directory.
func (r *Runner) Matrix() ([]*harness.Instance, error) {
	envs := r.Envs()
	var instances []*harness.Instance
	owners := make(map[string]string)

	for i, b := range r.cfg.Backends {
		for _, c := range r.cfg.Compilers {
			for _, s := range r.cfg.Env.Subjects {
				inst := &harness.Instance{
					Backend:  b,
					Compiler: c,
					Subject:  s,
					Env:      envs[i],
				}
				key := b.String() + "/" + inst.Name()
				dir := inst.OutputDir()
				if other, ok := owners[dir]; ok {
					return nil, fmt.Errorf("%w: %s and %s both use %s", ErrCollision, other, key, dir)
				}
				owners[dir] = key
				instances = append(instances, inst)
			}
		}
	}
	return instances, nil
}

// prepare checks the whole configuration before anything runs: every
// backend's output root is created, every subject file must exist and every
// header must load.
func (r *Runner) prepare() (map[*harness.Subject]*litmus.Header, error) {
	for _, env := range r.Envs() {
		if err := env.Prepare(); err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", env.OutputDir, err)
		}
	}
	return r.loadHeaders()
}

func (r *Runner) loadHeaders() (map[*harness.Subject]*litmus.Header, error) {
	headers := make(map[*harness.Subject]*litmus.Header)
	for _, s := range r.cfg.Env.Subjects {
		if s.Header == "" {
			continue
		}
		h, err := litmus.LoadFile(s.Header)
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", s.Name, err)
		}
		headers[s] = h
	}
	return headers, nil
}

// Run prepares the environment, runs every instance and judges it. A driver
// failure is an outcome, not an error: Run returns an error only if
// preparation fails, an instance cannot be set up or recorded, or ctx is
// cancelled. On error the returned summary holds whatever completed.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	instances, err := r.Matrix()
	if err != nil {
		return nil, err
	}
	headers, err := r.prepare()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if r.db != nil {
		if summary.RunID, err = r.startRun(); err != nil {
			return nil, err
		}
	}

	r.logger.Info("starting run",
		zap.String("run", state.ShortID(summary.RunID)),
		zap.Int("instances", len(instances)),
		zap.Int("jobs", r.cfg.Jobs),
	)

	outcomes := make([]Outcome, len(instances))
	done := make([]bool, len(instances))
	runOne := func(ctx context.Context, i int) error {
		o, err := r.runInstance(ctx, summary.RunID, instances[i], headers[instances[i].Subject])
		if err != nil {
			return err
		}
		outcomes[i], done[i] = o, true
		return nil
	}

	if r.cfg.Jobs > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.cfg.Jobs)
		for i := range instances {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error { return runOne(gctx, i) })
		}
		err = g.Wait()
		if err == nil {
			err = ctx.Err()
		}
	} else {
		for i := range instances {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = runOne(ctx, i); err != nil {
				break
			}
		}
	}

	for i := range outcomes {
		if done[i] {
			summary.Outcomes = append(summary.Outcomes, outcomes[i])
		}
	}

	status := state.RunStatusPassed
	switch {
	case err != nil:
		status = state.RunStatusAborted
	case summary.Failed() > 0:
		status = state.RunStatusFailed
	}
	if r.db != nil {
		if ferr := r.db.FinishRun(summary.RunID, status, r.now()); ferr != nil {
			r.logger.Warn("failed to finish run record", zap.Error(ferr))
		}
	}

	r.logger.Info("run finished",
		zap.String("run", state.ShortID(summary.RunID)),
		zap.String("status", string(status)),
		zap.Int("failed", summary.Failed()),
	)
	return summary, err
}

func (r *Runner) startRun() (string, error) {
	id, err := state.GenerateID()
	if err != nil {
		return "", err
	}
	run := &state.Run{
		ID:        id,
		StartedAt: r.now(),
		Status:    state.RunStatusRunning,
		OutputDir: r.cfg.Env.OutputDir,
		Driver:    r.cfg.Env.Driver,
	}
	if err := r.db.CreateRun(run); err != nil {
		return "", err
	}
	return id, nil
}

// runInstance runs and checks one instance and records its outcome.
func (r *Runner) runInstance(ctx context.Context, runID string, inst *harness.Instance, header *litmus.Header) (Outcome, error) {
	logger := r.logger.With(zap.String("backend", inst.Backend.String()))

	rp := NewRunPhase(inst, r.exec, logger)
	rp.Timeout = r.cfg.Timeout
	rp.Environment = r.cfg.Environment
	if err := rp.Run(ctx); err != nil {
		return Outcome{}, err
	}

	cp := NewCheckPhase(inst, header)
	if err := cp.Run(ctx); err != nil {
		return Outcome{}, err
	}

	o := Outcome{
		Instance: inst,
		Verdict:  cp.Verdict(),
		Reason:   cp.Reason(),
		Result:   rp.Result(),
		Duration: rp.Duration(),
	}
	// A driver can fail without writing to stderr; the exit code still
	// counts, and stale state from an earlier run must not pass.
	if !o.Result.Success() && o.Verdict != state.VerdictError {
		o.Verdict = state.VerdictError
		o.Reason = fmt.Sprintf("driver exited %d", o.Result.ExitCode)
	}

	if r.db != nil {
		err := r.db.RecordResult(&state.Result{
			RunID:      runID,
			Instance:   inst.Name(),
			Backend:    inst.Backend.String(),
			Compiler:   inst.Compiler.String(),
			Subject:    inst.Subject.Name,
			ExitCode:   o.Result.ExitCode,
			HasErrors:  inst.HasErrors(),
			Verdict:    o.Verdict,
			Duration:   o.Duration,
			RecordedAt: r.now(),
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to record %s: %w", inst, err)
		}
	}
	return o, nil
}

// Check judges every instance from its existing output without running any
// driver or touching the state store.
func (r *Runner) Check(ctx context.Context) (*Summary, error) {
	instances, err := r.Matrix()
	if err != nil {
		return nil, err
	}
	headers, err := r.loadHeaders()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, inst := range instances {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		cp := NewCheckPhase(inst, headers[inst.Subject])
		if err := cp.Run(ctx); err != nil {
			return summary, err
		}
		summary.Outcomes = append(summary.Outcomes, Outcome{
			Instance: inst,
			Verdict:  cp.Verdict(),
			Reason:   cp.Reason(),
		})
	}
	return summary, nil
}
