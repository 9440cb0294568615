// Package envconfig resolves named configuration overlays.
//
// A Descriptor carries a string overlay and an optional parent name.
// Resolving a name walks the parent chain to its root and merges the
// overlays root first, so a child's value wins over its ancestors'.
// Chains are linear; there is no multiple inheritance.
package envconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultName is the config used when the caller does not pick one.
const DefaultName = "default"

var (
	// ErrUnknownConfig is returned when a config name, or one of its
	// parents, is not registered.
	ErrUnknownConfig = errors.New("unknown config")

	// ErrConfigurationCycle is returned when a parent chain revisits a name.
	ErrConfigurationCycle = errors.New("configuration cycle")
)

// Descriptor is one registered config: an overlay plus an optional parent.
type Descriptor struct {
	Name   string            `json:"name" yaml:"name"`
	Parent string            `json:"parent,omitempty" yaml:"parent,omitempty"`
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"`
}

// Registry maps config names to descriptors. It is built once and only
// read afterwards.
type Registry map[string]Descriptor

// Names returns the registered config names in lexical order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolved is a flattened configuration.
type Resolved struct {
	// Name is the config that was requested.
	Name string `json:"name" yaml:"name"`

	// Chain lists the applied descriptors, root first.
	Chain []string `json:"chain" yaml:"chain"`

	// Values is the merged overlay.
	Values map[string]string `json:"values" yaml:"values"`
}

// Get returns the value for key, or "" if unset.
func (r Resolved) Get(key string) string {
	return r.Values[key]
}

// Lookup returns the value for key and whether it was set.
func (r Resolved) Lookup(key string) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Keys returns the set keys in lexical order.
func (r Resolved) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of r with overlay applied on top. r is not modified.
func (r Resolved) With(overlay map[string]string) Resolved {
	values := make(map[string]string, len(r.Values)+len(overlay))
	for k, v := range r.Values {
		values[k] = v
	}
	for k, v := range overlay {
		values[k] = v
	}
	chain := make([]string, len(r.Chain))
	copy(chain, r.Chain)
	return Resolved{Name: r.Name, Chain: chain, Values: values}
}

// Factory resolves config names against a Registry. It holds no mutable
// state and may be shared between goroutines.
type Factory struct {
	registry Registry
}

// NewFactory creates a Factory over registry.
func NewFactory(registry Registry) *Factory {
	return &Factory{registry: registry}
}

// Chain returns the descriptor names from the root ancestor down to name.
func (f *Factory) Chain(name string) ([]string, error) {
	descriptors, err := f.walk(name)
	if err != nil {
		return nil, err
	}
	chain := make([]string, len(descriptors))
	for i, d := range descriptors {
		chain[i] = d.Name
	}
	return chain, nil
}

// GetConfig resolves name into a fully merged configuration. It either
// returns the complete mapping or fails with ErrUnknownConfig or
// ErrConfigurationCycle.
func (f *Factory) GetConfig(name string) (Resolved, error) {
	descriptors, err := f.walk(name)
	if err != nil {
		return Resolved{}, err
	}

	values := make(map[string]string)
	chain := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		for k, v := range d.Values {
			values[k] = v
		}
		chain = append(chain, d.Name)
	}
	return Resolved{Name: name, Chain: chain, Values: values}, nil
}

// walk follows parent pointers from name and returns the descriptors in
// root-to-child order.
func (f *Factory) walk(name string) ([]Descriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownConfig)
	}

	var (
		collected []Descriptor
		visited   = make(map[string]bool)
		path      []string
	)

	for current := name; current != ""; {
		if visited[current] {
			return nil, fmt.Errorf("%w: %q revisited via %s", ErrConfigurationCycle, current,
				strings.Join(append(path, current), " -> "))
		}
		visited[current] = true
		path = append(path, current)

		d, ok := f.registry[current]
		if !ok {
			if current == name {
				return nil, fmt.Errorf("%w: %q", ErrUnknownConfig, current)
			}
			return nil, fmt.Errorf("%w: %q (parent in chain %s)", ErrUnknownConfig, current,
				strings.Join(path, " -> "))
		}
		collected = append(collected, d)
		current = d.Parent
	}

	// Reverse so the root comes first.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected, nil
}
