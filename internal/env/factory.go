package env

import (
	"fmt"

	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/port"
)

// Factory composes environments from a provider registry. The registry is
// only read, so one Factory may serve concurrent Create calls.
type Factory struct {
	registry Registry
}

// NewFactory creates a Factory over registry.
func NewFactory(registry Registry) *Factory {
	return &Factory{registry: registry}
}

// Names returns the environment names the factory can create.
func (f *Factory) Names() []string {
	return f.registry.Names()
}

// Modules returns the modules of environment name in the order Create
// would apply them, without applying anything.
func (f *Factory) Modules(name string) ([]*Module, error) {
	return f.registry.Resolve(name)
}

// Create composes environment name with the resolved config and binder.
//
// Modules are applied in dependency order. For each module its declared
// ports are bound first, so Apply can look them up with Builder.HostPort.
// The first failing module aborts the composition and nil is returned
// together with a *ModuleError.
func (f *Factory) Create(name string, cfg envconfig.Resolved, binder port.Binder) (*Definition, error) {
	if binder == nil {
		return nil, fmt.Errorf("%w: nil port binder", port.ErrInvalidOptions)
	}

	modules, err := f.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	b := newBuilder(cfg, binder)
	for _, m := range modules {
		if err := apply(b, m); err != nil {
			return nil, &ModuleError{Module: m.Name, Err: err}
		}
	}
	return b.build(name), nil
}

func apply(b *Builder, m *Module) error {
	b.begin(m)
	b.bind(m)
	if m.Apply != nil {
		if err := m.Apply(b); err != nil {
			return err
		}
	}
	return b.checkPorts(m)
}
