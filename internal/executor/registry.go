package executor

import (
	"fmt"
	"sort"
)

// Config contains configuration needed to initialize an executor.
type Config struct {
	// Type is the executor type (e.g., "shell").
	Type string

	// Shell is the interpreter used by shell-based executors. Empty means
	// $SHELL, falling back to /bin/sh.
	Shell string
}

// Factory is a function that creates a new executor.
type Factory func(cfg Config) (Executor, error)

// registry holds the registered executor factories.
var registry = make(map[string]Factory)

// Register registers an executor factory for the given type.
// This should be called during package init. Registering the same type twice
// panics.
func Register(executorType string, factory Factory) {
	if _, exists := registry[executorType]; exists {
		panic(fmt.Sprintf("executor type %q already registered", executorType))
	}
	registry[executorType] = factory
}

// Get returns a new executor for the given configuration.
// Returns an error if the executor type is not registered.
func Get(cfg Config) (Executor, error) {
	factory, ok := registry[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown executor type: %s", cfg.Type)
	}
	return factory(cfg)
}

// RegisteredTypes returns the registered executor types in sorted order.
func RegisteredTypes() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
