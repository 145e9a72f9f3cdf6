package harness

import (
	"context"

	"github.com/Quidge/actrun/internal/ident"
)

// Runner is implemented by phases: stateful actions, such as running the
// driver or checking its output, performed against one instance.
//
// Run should be called at most once per attempt. Running a phase again on the
// same instance without calling Instance.Prepare in between may read the
// previous attempt's error file.
type Runner interface {
	Run(ctx context.Context) error
}

// PhaseBase is embedded by concrete phases. It gives read-only access to the
// instance so phases never reach into its fields directly.
type PhaseBase struct {
	instance *Instance
}

// NewPhaseBase returns a PhaseBase bound to inst.
func NewPhaseBase(inst *Instance) PhaseBase {
	return PhaseBase{instance: inst}
}

// Instance returns the phase's instance.
func (p PhaseBase) Instance() *Instance { return p.instance }

// Backend returns the backend of the phase's instance.
func (p PhaseBase) Backend() ident.ID { return p.instance.Backend }

// Compiler returns the compiler of the phase's instance.
func (p PhaseBase) Compiler() ident.ID { return p.instance.Compiler }

// Subject returns the subject of the phase's instance.
func (p PhaseBase) Subject() *Subject { return p.instance.Subject }

// Env returns the test environment of the phase's instance.
func (p PhaseBase) Env() *Env { return p.instance.Env }

// ErrorFile returns the instance's error file path.
func (p PhaseBase) ErrorFile() string { return p.instance.ErrorFile() }

// StateFile returns the instance's state file path.
func (p PhaseBase) StateFile() string { return p.instance.StateFile() }

// OutputDir returns the instance's output directory.
func (p PhaseBase) OutputDir() string { return p.instance.OutputDir() }

func (p PhaseBase) String() string { return p.instance.Name() }
