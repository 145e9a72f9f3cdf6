// Package harness implements the instance/phase execution model for running a
// driver command against litmus-test subjects.
//
// The pieces, leaves first:
//
//   - Subject is a named reference to one test input file.
//   - Env holds the subjects, the driver command template, and the root output
//     directory shared by every instance.
//   - Instance is one (backend, compiler, subject, env) combination. It owns
//     the derived paths for its scratch directory and the rendered driver
//     command, and classifies a completed driver run by writing it to disk.
//   - Runner is the capability implemented by phases; PhaseBase gives a phase
//     read-only access to its instance.
//
// Each instance writes only inside its own output directory:
//
//	<output_dir>/<subject>_<compiler>/errors      stderr of the last attempt
//	<output_dir>/<subject>_<compiler>/state.json  stdout of the last success
//
// Whether an instance passed is always re-derived from these files, never
// cached in memory, so a resumed or externally inspected tree reads the same
// as one produced in-process. Because the directories of distinct instances
// are disjoint, instances need no locking to run concurrently.
package harness
