package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/model"
)

// ErrDuplicateRegistration is returned when an extension reuses a name
// that is already registered.
var ErrDuplicateRegistration = errors.New("duplicate registration")

// builtins are the built-in module singletons, shared by every Catalog.
// Modules carry no mutable state, so sharing them is safe.
var builtins = sync.OnceValues(builtinModules)

// Extensions are caller-supplied additions to the built-in catalog.
type Extensions struct {
	Modules      []*env.Module
	Environments []Environment
	Configs      []envconfig.Descriptor
}

// Catalog holds the registries of one process. It is immutable after New
// and safe for concurrent use.
type Catalog struct {
	modules      map[string]*env.Module
	builtin      map[string]bool
	environments env.Registry
	configs      envconfig.Registry
}

// New builds the catalog from the built-in modules, environments and
// configs plus ext. Extensions may add names but never replace existing
// ones; every collision is reported, not just the first.
func New(ext Extensions) (*Catalog, error) {
	c := &Catalog{
		modules:      make(map[string]*env.Module),
		builtin:      make(map[string]bool),
		environments: make(env.Registry),
		configs:      make(envconfig.Registry),
	}

	modules, err := builtins()
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		c.modules[m.Name] = m
		c.builtin[m.Name] = true
	}
	environments, err := builtinEnvironments(c.modules)
	if err != nil {
		return nil, err
	}
	for _, e := range environments {
		c.environments[e.Name] = e.Provider
	}
	for _, d := range builtinConfigs() {
		c.configs[d.Name] = d
	}

	var errs error
	for _, m := range ext.Modules {
		errs = multierr.Append(errs, c.addModule(m))
	}
	for _, e := range ext.Environments {
		errs = multierr.Append(errs, c.addEnvironment(e))
	}
	for _, d := range ext.Configs {
		errs = multierr.Append(errs, c.addConfig(d))
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func (c *Catalog) addModule(m *env.Module) error {
	if m == nil {
		return errors.New("nil extension module")
	}
	if err := model.ValidateName(m.Name); err != nil {
		return fmt.Errorf("module: %w", err)
	}
	if _, ok := c.modules[m.Name]; ok {
		return fmt.Errorf("%w: module %q", ErrDuplicateRegistration, m.Name)
	}
	c.modules[m.Name] = m
	return nil
}

func (c *Catalog) addEnvironment(e Environment) error {
	if err := model.ValidateName(e.Name); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if e.Provider == nil {
		return fmt.Errorf("environment %q has no provider", e.Name)
	}
	if _, ok := c.environments[e.Name]; ok {
		return fmt.Errorf("%w: environment %q", ErrDuplicateRegistration, e.Name)
	}
	c.environments[e.Name] = e.Provider
	return nil
}

func (c *Catalog) addConfig(d envconfig.Descriptor) error {
	if err := model.ValidateName(d.Name); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, ok := c.configs[d.Name]; ok {
		return fmt.Errorf("%w: config %q", ErrDuplicateRegistration, d.Name)
	}
	c.configs[d.Name] = d
	return nil
}

// Module returns the module registered under name.
func (c *Catalog) Module(name string) (*env.Module, bool) {
	m, ok := c.modules[name]
	return m, ok
}

// IsBuiltin reports whether name is a built-in module.
func (c *Catalog) IsBuiltin(name string) bool {
	return c.builtin[name]
}

// ModuleNames returns all module names in lexical order.
func (c *Catalog) ModuleNames() []string {
	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvironmentNames returns all environment names in lexical order.
func (c *Catalog) EnvironmentNames() []string {
	return c.environments.Names()
}

// ConfigNames returns all config names in lexical order.
func (c *Catalog) ConfigNames() []string {
	return c.configs.Names()
}

// Config returns the descriptor registered under name.
func (c *Catalog) Config(name string) (envconfig.Descriptor, bool) {
	d, ok := c.configs[name]
	return d, ok
}

// ConfigFactory returns a config factory over the catalog's configs.
func (c *Catalog) ConfigFactory() *envconfig.Factory {
	return envconfig.NewFactory(c.configs)
}

// EnvironmentFactory returns an environment factory over the catalog's
// environments.
func (c *Catalog) EnvironmentFactory() *env.Factory {
	return env.NewFactory(c.environments)
}

// BuiltinModule looks up a built-in module by name. It returns the same
// singleton every Catalog registers, so extensions can require it.
func BuiltinModule(name string) (*env.Module, bool) {
	modules, err := builtins()
	if err != nil {
		return nil, false
	}
	for _, m := range modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}
