package config

// GlobalConfigTemplate is the default template for ~/.config/actrun/config.yaml.
// It includes comments explaining each option.
const GlobalConfigTemplate = `# actrun global configuration
# Location: ~/.config/actrun/config.yaml

# Schema version (required)
version: 1

# Interpreter for driver commands (default: $SHELL, then /bin/sh)
# shell: /bin/bash

# Run history database (default: ~/.local/share/actrun/state.db)
# state_db: ~/.local/share/actrun/state.db

# Defaults for projects that don't set them
timeout: 5m
jobs: 1
executor: shell
`

// ProjectConfigTemplate is the default template for actrun.yaml.
// It includes commented examples for all configuration options.
const ProjectConfigTemplate = `# actrun project configuration
# Location: actrun.yaml (found by searching upward from the working directory)

# Schema version (required)
version: 1

# Root of all instance output, relative to this file.
# Each backend gets its own directory; each instance gets
#   <output_dir>/<backend>/<subject>_<compiler>/{errors,state.json}
output_dir: out

# Driver command template. Placeholders:
#   {backend}       backend ID, e.g. herd.x86
#   {compiler}      compiler ID, e.g. gcc.x86.O2
#   {subject_name}  litmus test name
#   {subject_path}  path to the litmus test file
#   {dir}           the instance's output directory
# Write {{ and }} for literal braces.
driver: "act-driver -b {backend} -c {compiler} -o {dir} {subject_path}"

# Backends and compilers are dot-separated IDs, most general part first.
backends:
  - herd.x86

compilers:
  - gcc.x86.O2

# Litmus tests. header points at an optional JSON sidecar with the test's
# locations; when present, state.json must contain every location.
subjects:
  - name: sb
    path: tests/sb.litmus
    # header: tests/sb.json

# Extra environment for the driver
# env:
#   # Literal value
#   CC_FLAGS: -O2
#
#   # Reference host environment variable
#   TOOLCHAIN: ${TOOLCHAIN}
#
#   # Reference file contents (entire file becomes value)
#   LICENSE_KEY:
#     from_file: ~/.secrets/herd-license

# Per-driver time limit and parallelism (override global defaults)
# timeout: 2m
# jobs: 4
# executor: shell
`

// ProjectConfigMinimalTemplate is a minimal template without comments.
const ProjectConfigMinimalTemplate = `version: 1
output_dir: out
driver: "act-driver -b {backend} -c {compiler} -o {dir} {subject_path}"
backends: []
compilers: []
subjects: []
`
