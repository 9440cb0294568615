package env

import (
	"fmt"
	"sort"
)

// Provider contributes the modules of one environment to a ModuleSet.
type Provider interface {
	Extend(set *ModuleSet) error
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(set *ModuleSet) error

// Extend calls f(set).
func (f ProviderFunc) Extend(set *ModuleSet) error {
	return f(set)
}

// Modules returns a Provider that adds the given modules in order.
func Modules(modules ...*Module) Provider {
	return ProviderFunc(func(set *ModuleSet) error {
		return set.Add(modules...)
	})
}

// Registry maps environment names to providers. It is built once by the
// catalog and only read afterwards, so concurrent Resolve calls are safe.
type Registry map[string]Provider

// Names returns the registered environment names in lexical order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the modules of environment name in application order.
func (r Registry) Resolve(name string) ([]*Module, error) {
	provider, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}

	set := NewModuleSet()
	if err := provider.Extend(set); err != nil {
		return nil, fmt.Errorf("environment %q: %w", name, err)
	}
	return set.Ordered()
}
