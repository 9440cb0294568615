package env

import (
	"fmt"
	"sort"
)

// ExposedPort is a container-internal port a module wants published.
type ExposedPort struct {
	// Container is the name of the container the port belongs to. The
	// container may be added by this module or by one it requires.
	Container string `json:"container" yaml:"container"`
	Port      int    `json:"port" yaml:"port"`
}

// Module is a named unit of infrastructure setup contributed to an
// environment. Modules are created once by the catalog and shared by every
// composition; identity is the pointer, uniqueness is the Name.
type Module struct {
	// Name is the stable catalog name, e.g. "hadoop-kerberos".
	Name string

	// Requires lists modules that must be applied before this one.
	Requires []*Module

	// Ports are bound with the composition's port binder before Apply runs.
	Ports []ExposedPort

	// Apply contributes containers and settings to the environment.
	// It may be nil for modules that only declare requirements.
	Apply func(b *Builder) error
}

// RequiredNames returns the names of the directly required modules.
func (m *Module) RequiredNames() []string {
	names := make([]string, 0, len(m.Requires))
	for _, r := range m.Requires {
		names = append(names, r.Name)
	}
	return names
}

// ModuleSet collects the modules of one environment and orders them.
// A ModuleSet is used by a single resolution and is not safe for
// concurrent use.
type ModuleSet struct {
	byName map[string]*Module
	order  []*Module
}

// NewModuleSet creates an empty set.
func NewModuleSet() *ModuleSet {
	return &ModuleSet{byName: make(map[string]*Module)}
}

// Add registers modules and, transitively, everything they require.
// Registration order is depth-first preorder. Adding the same module
// twice is a no-op; adding a different module under a taken name fails
// with ErrDuplicateModule.
func (s *ModuleSet) Add(modules ...*Module) error {
	for _, m := range modules {
		if err := s.add(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *ModuleSet) add(m *Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	if existing, ok := s.byName[m.Name]; ok {
		if existing == m {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateModule, m.Name)
	}
	s.byName[m.Name] = m
	s.order = append(s.order, m)

	for _, r := range m.Requires {
		if err := s.add(r); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered modules.
func (s *ModuleSet) Len() int {
	return len(s.order)
}

// Ordered returns the modules so that every module follows all of its
// requirements. Among modules whose requirements are satisfied, the one
// registered first comes first, which makes the order deterministic.
func (s *ModuleSet) Ordered() ([]*Module, error) {
	placed := make(map[*Module]bool, len(s.order))
	result := make([]*Module, 0, len(s.order))

	for len(result) < len(s.order) {
		next := -1
		for i, m := range s.order {
			if placed[m] || !requirementsPlaced(m, placed) {
				continue
			}
			next = i
			break
		}
		if next < 0 {
			return nil, fmt.Errorf("%w among %v", ErrDependencyCycle, unplacedNames(s.order, placed))
		}
		placed[s.order[next]] = true
		result = append(result, s.order[next])
	}
	return result, nil
}

func requirementsPlaced(m *Module, placed map[*Module]bool) bool {
	for _, r := range m.Requires {
		if !placed[r] {
			return false
		}
	}
	return true
}

func unplacedNames(order []*Module, placed map[*Module]bool) []string {
	var names []string
	for _, m := range order {
		if !placed[m] {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names
}
