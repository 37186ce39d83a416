package module

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a fresh, uninitialized module instance.
type Factory func() Module

// Registry maintains known puzzle factories keyed by manifest selector.
// It is populated explicitly during process bootstrap and returned as a
// value; nothing registers itself at import time.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a puzzle factory. Returns an error if the ID already exists.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("module: id is required")
	}
	if factory == nil {
		return fmt.Errorf("module: factory is required for %s", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("module: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a module by selector.
func (r *Registry) Resolve(id string) (Module, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("module: unknown id %s", id)
	}
	mod := factory()
	if err := mod.Info().Validate(); err != nil {
		return nil, err
	}
	return mod, nil
}

// Known reports whether a selector is registered.
func (r *Registry) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns a sorted list of registered selectors.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Vanilla returns sorted selectors whose Info marks them as vanilla (or the
// complement when vanilla is false). Used by manifest distributions.
func (r *Registry) Vanilla(vanilla bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id, factory := range r.factories {
		if factory().Info().Vanilla == vanilla {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
