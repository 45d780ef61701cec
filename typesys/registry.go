package typesys

import (
	"sync"

	"go.viam.com/rosbags/rosbagerr"
)

// Registry is the process-scoped (or, for hermetic tests, explicitly
// constructed) mapping from fully-qualified message name to parse tree.
// Registration is infrequent and serialized with lookup by a single
// mutex; lookup is hot but needs no finer-grained locking because
// callers resolve a name once per connection and cache the *Definition
// handle (spec.md §5).
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry returns an empty registry. Use MustRegisterBuiltins to seed
// it with the built-in ROS2 message set, or Default() for the process
// singleton that already has them.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds every definition in defs to the registry. The operation
// is atomic: either every definition is new-or-identical and all are
// added, or the whole batch is rejected with a TypeConflict and the
// registry is left unchanged.
func (r *Registry) Register(defs map[string]*Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, def := range defs {
		if existing, ok := r.defs[name]; ok && !existing.Equal(def) {
			return rosbagerr.TypeConflict(name)
		}
	}
	for name, def := range defs {
		r.defs[name] = def
	}
	return nil
}

// RegisterOne is a convenience wrapper around Register for a single
// definition, keyed by its own Name.
func (r *Registry) RegisterOne(def *Definition) error {
	return r.Register(map[string]*Definition{def.Name: def})
}

// Lookup returns the definition registered under name, or a NotFound
// error.
func (r *Registry) Lookup(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, rosbagerr.NotFound(name)
	}
	return def, nil
}

// Has reports whether name is registered, without erroring.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[name]
	return ok
}

// Iterate returns every registered fully-qualified name. The order is
// unspecified.
func (r *Registry) Iterate() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// Default returns the process-wide singleton registry, seeded with the
// built-in message set on first use. Tests that need hermetic isolation
// should construct their own Registry with NewRegistry instead.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.MustRegisterBuiltins()
	})
	return defaultRegistry
}
