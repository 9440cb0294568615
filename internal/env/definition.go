package env

import (
	"github.com/shinji-kodama/launcher/internal/port"
)

// Definition is a fully composed environment: modules in application
// order, every port binding, and the merged configuration. It is what the
// container runtime consumes. A Definition is never modified after
// Factory.Create returns it.
type Definition struct {
	Environment string            `json:"environment" yaml:"environment"`
	Config      string            `json:"config" yaml:"config"`
	Binder      string            `json:"portBinder" yaml:"portBinder"`
	Modules     []AppliedModule   `json:"modules" yaml:"modules"`
	Ports       []PortBinding     `json:"ports" yaml:"ports"`
	Settings    map[string]string `json:"settings" yaml:"settings"`
}

// AppliedModule records one applied module and the containers it added.
type AppliedModule struct {
	Name       string      `json:"name" yaml:"name"`
	Requires   []string    `json:"requires,omitempty" yaml:"requires,omitempty"`
	Containers []Container `json:"containers,omitempty" yaml:"containers,omitempty"`
}

// PortBinding is one bound port, in binding order.
type PortBinding struct {
	Module        string        `json:"module" yaml:"module"`
	Container     string        `json:"container" yaml:"container"`
	ContainerPort int           `json:"containerPort" yaml:"containerPort"`
	Host          port.HostPort `json:"host" yaml:"host"`
}

// PortMap flattens the bindings into container port -> host port. When two
// modules bind the same container port the later binding wins.
func (d *Definition) PortMap() map[int]port.HostPort {
	m := make(map[int]port.HostPort, len(d.Ports))
	for _, p := range d.Ports {
		m[p.ContainerPort] = p.Host
	}
	return m
}

// ModuleNames returns the module names in application order.
func (d *Definition) ModuleNames() []string {
	names := make([]string, 0, len(d.Modules))
	for _, m := range d.Modules {
		names = append(names, m.Name)
	}
	return names
}

// Containers returns every container in module order.
func (d *Definition) Containers() []Container {
	var out []Container
	for _, m := range d.Modules {
		out = append(out, m.Containers...)
	}
	return out
}

// ContainerPorts returns the bindings that target the named container.
func (d *Definition) ContainerPorts(container string) []PortBinding {
	var out []PortBinding
	for _, p := range d.Ports {
		if p.Container == container {
			out = append(out, p)
		}
	}
	return out
}

// Module returns the applied module with the given name.
func (d *Definition) Module(name string) (AppliedModule, bool) {
	for _, m := range d.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return AppliedModule{}, false
}
