package provider

import (
	"fmt"
	"sort"
)

// Factory builds a Provider. Construction is fail-fast: a factory
// returns an error immediately when its backend is unusable, for
// example because a credential is missing, rather than deferring the
// failure to the first exchange.
type Factory func() (Provider, error)

// Registry maps backend identities to adapter factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register binds a backend identity to its factory. Later
// registrations under the same identity replace earlier ones.
func (r *Registry) Register(id string, f Factory) {
	r.factories[id] = f
}

// Create instantiates the adapter registered under id.
func (r *Registry) Create(id string) (Provider, error) {
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
	return f()
}

// Backends returns the registered backend identities in sorted order.
func (r *Registry) Backends() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
