package env

import (
	"fmt"

	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/port"
)

// Container is a container declared by a module while it is applied.
// Modules may adjust containers added by the modules they require, e.g.
// kafka-ssl adds TLS settings to the kafka broker container.
type Container struct {
	Name    string            `json:"name" yaml:"name"`
	Image   string            `json:"image" yaml:"image"`
	Module  string            `json:"module" yaml:"module"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Command []string          `json:"command,omitempty" yaml:"command,omitempty"`
	// Mounts maps host paths to container paths.
	Mounts map[string]string `json:"mounts,omitempty" yaml:"mounts,omitempty"`
}

// WithEnv sets an environment variable and returns c for chaining.
func (c *Container) WithEnv(key, value string) *Container {
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	c.Env[key] = value
	return c
}

// WithMount mounts hostPath at containerPath and returns c for chaining.
func (c *Container) WithMount(hostPath, containerPath string) *Container {
	if c.Mounts == nil {
		c.Mounts = make(map[string]string)
	}
	c.Mounts[hostPath] = containerPath
	return c
}

// WithCommand replaces the container command and returns c for chaining.
func (c *Container) WithCommand(args ...string) *Container {
	c.Command = append([]string(nil), args...)
	return c
}

func (c *Container) clone() Container {
	out := Container{Name: c.Name, Image: c.Image, Module: c.Module}
	if c.Env != nil {
		out.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			out.Env[k] = v
		}
	}
	if c.Command != nil {
		out.Command = append([]string(nil), c.Command...)
	}
	if c.Mounts != nil {
		out.Mounts = make(map[string]string, len(c.Mounts))
		for k, v := range c.Mounts {
			out.Mounts[k] = v
		}
	}
	return out
}

// Builder is the in-progress environment handed to each module's Apply.
// It belongs to a single Factory.Create call and is discarded afterwards;
// modules must not retain it.
type Builder struct {
	config   envconfig.Resolved
	binder   port.Binder
	settings map[string]string

	current    string
	modules    []appliedRecord
	containers []*Container
	byName     map[string]*Container
	ports      []PortBinding
}

type appliedRecord struct {
	name     string
	requires []string
}

func newBuilder(cfg envconfig.Resolved, binder port.Binder) *Builder {
	settings := make(map[string]string, len(cfg.Values))
	for k, v := range cfg.Values {
		settings[k] = v
	}
	return &Builder{
		config:   cfg,
		binder:   binder,
		settings: settings,
		byName:   make(map[string]*Container),
	}
}

// Module returns the name of the module currently being applied.
func (b *Builder) Module() string {
	return b.current
}

// Config returns a copy of the resolved configuration the composition
// started from, without contributions from modules.
func (b *Builder) Config() envconfig.Resolved {
	return b.config.With(nil)
}

// Setting returns the merged value for key: the resolved config plus
// whatever earlier modules (and this one) have Set.
func (b *Builder) Setting(key string) string {
	return b.settings[key]
}

// SettingOr returns Setting(key), or fallback when the key is unset.
func (b *Builder) SettingOr(key, fallback string) string {
	if v, ok := b.settings[key]; ok {
		return v
	}
	return fallback
}

// Set contributes a key to the merged configuration. Later modules
// overwrite earlier ones.
func (b *Builder) Set(key, value string) {
	b.settings[key] = value
}

// Binder returns the port binder chosen for this composition.
func (b *Builder) Binder() port.Binder {
	return b.binder
}

// AddContainer declares a new container owned by the current module.
func (b *Builder) AddContainer(name, image string) (*Container, error) {
	if name == "" {
		return nil, fmt.Errorf("container name must not be empty")
	}
	if existing, ok := b.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q already added by module %q", ErrDuplicateContainer, name, existing.Module)
	}
	c := &Container{Name: name, Image: image, Module: b.current}
	b.byName[name] = c
	b.containers = append(b.containers, c)
	return c, nil
}

// Container returns a previously added container.
func (b *Builder) Container(name string) (*Container, bool) {
	c, ok := b.byName[name]
	return c, ok
}

// HostPort returns the host port most recently bound for containerPort.
func (b *Builder) HostPort(containerPort int) (port.HostPort, bool) {
	for i := len(b.ports) - 1; i >= 0; i-- {
		if b.ports[i].ContainerPort == containerPort {
			return b.ports[i].Host, true
		}
	}
	return port.HostPort{}, false
}

// Expose binds containerPort of an already added container with the
// composition's binder. It is for ports that depend on settings, such as
// a debugger port; static ports belong in Module.Ports.
func (b *Builder) Expose(container string, containerPort int) (port.HostPort, error) {
	if _, ok := b.byName[container]; !ok {
		return port.HostPort{}, fmt.Errorf("%w: port %d targets container %q", ErrUnknownContainer, containerPort, container)
	}
	host := b.binder.Bind(containerPort)
	b.ports = append(b.ports, PortBinding{
		Module:        b.current,
		Container:     container,
		ContainerPort: containerPort,
		Host:          host,
	})
	return host, nil
}

func (b *Builder) begin(m *Module) {
	b.current = m.Name
	b.modules = append(b.modules, appliedRecord{name: m.Name, requires: m.RequiredNames()})
}

func (b *Builder) bind(m *Module) {
	for _, p := range m.Ports {
		b.ports = append(b.ports, PortBinding{
			Module:        m.Name,
			Container:     p.Container,
			ContainerPort: p.Port,
			Host:          b.binder.Bind(p.Port),
		})
	}
}

// checkPorts verifies every port declared by m targets a known container.
func (b *Builder) checkPorts(m *Module) error {
	for _, p := range m.Ports {
		if _, ok := b.byName[p.Container]; !ok {
			return fmt.Errorf("%w: port %d targets container %q", ErrUnknownContainer, p.Port, p.Container)
		}
	}
	return nil
}

// build snapshots the builder into an independent Definition.
func (b *Builder) build(environment string) *Definition {
	def := &Definition{
		Environment: environment,
		Config:      b.config.Name,
		Binder:      b.binder.String(),
		Modules:     make([]AppliedModule, 0, len(b.modules)),
		Ports:       append([]PortBinding(nil), b.ports...),
		Settings:    make(map[string]string, len(b.settings)),
	}
	for k, v := range b.settings {
		def.Settings[k] = v
	}
	for _, rec := range b.modules {
		applied := AppliedModule{Name: rec.name, Requires: rec.requires}
		for _, c := range b.containers {
			if c.Module == rec.name {
				applied.Containers = append(applied.Containers, c.clone())
			}
		}
		def.Modules = append(def.Modules, applied)
	}
	return def
}
