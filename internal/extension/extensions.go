package extension

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/envconfig"
)

// ErrUnknownModule is returned when a module or environment refers to a
// module that is neither built in nor declared in the file.
var ErrUnknownModule = errors.New("unknown module")

// Lookup resolves a module name that is not declared in the file,
// typically catalog.BuiltinModule.
type Lookup func(name string) (*env.Module, bool)

// Extensions converts the file into catalog extensions. Modules declared
// in the file take precedence over lookup when linking requirements, so a
// file that redeclares a built-in name links against its own module; the
// catalog then rejects the redeclaration.
func (f *File) Extensions(lookup Lookup) (catalog.Extensions, error) {
	var ext catalog.Extensions

	local := make(map[string]*env.Module, len(f.Modules))
	for i := range f.Modules {
		spec := f.Modules[i]
		m, err := spec.module()
		if err != nil {
			return catalog.Extensions{}, err
		}
		if _, dup := local[m.Name]; dup {
			return catalog.Extensions{}, fmt.Errorf("%w: module %q declared twice in %s",
				catalog.ErrDuplicateRegistration, m.Name, f.Path)
		}
		local[m.Name] = m
		ext.Modules = append(ext.Modules, m)
	}

	resolve := func(name string) (*env.Module, error) {
		if m, ok := local[name]; ok {
			return m, nil
		}
		if lookup != nil {
			if m, ok := lookup(name); ok {
				return m, nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}

	// Second pass: link requirements now that every local module exists.
	for i, spec := range f.Modules {
		m := ext.Modules[i]
		for _, req := range spec.Requires {
			r, err := resolve(req)
			if err != nil {
				return catalog.Extensions{}, fmt.Errorf("module %q: %w", m.Name, err)
			}
			m.Requires = append(m.Requires, r)
		}
	}

	for _, spec := range f.Environments {
		modules := make([]*env.Module, 0, len(spec.Modules))
		for _, name := range spec.Modules {
			m, err := resolve(name)
			if err != nil {
				return catalog.Extensions{}, fmt.Errorf("environment %q: %w", spec.Name, err)
			}
			modules = append(modules, m)
		}
		ext.Environments = append(ext.Environments, catalog.Environment{
			Name:     spec.Name,
			Provider: env.Modules(modules...),
		})
	}

	for _, spec := range f.Configs {
		ext.Configs = append(ext.Configs, envconfig.Descriptor{
			Name:   spec.Name,
			Parent: spec.Parent,
			Values: copyMap(spec.Values),
		})
	}

	return ext, nil
}

// module builds the env.Module for a spec, without requirements.
func (s ModuleSpec) module() (*env.Module, error) {
	container := s.Container
	if container == "" && s.Image != "" {
		container = s.Name
	}
	if container == "" && (len(s.Ports) > 0 || len(s.Env) > 0 || len(s.Command) > 0 || len(s.Mounts) > 0) {
		return nil, fmt.Errorf("module %q: container or image is required to set ports, env, command or mounts", s.Name)
	}

	m := &env.Module{Name: s.Name}
	for _, p := range s.Ports {
		if p <= 0 || p > 65535 {
			return nil, fmt.Errorf("module %q: invalid port %d", s.Name, p)
		}
		m.Ports = append(m.Ports, env.ExposedPort{Container: container, Port: p})
	}

	image := s.Image
	envVars := copyMap(s.Env)
	mounts := copyMap(s.Mounts)
	settings := copyMap(s.Settings)
	command := append([]string(nil), s.Command...)

	m.Apply = func(b *env.Builder) error {
		var c *env.Container
		if image != "" {
			added, err := b.AddContainer(container, image)
			if err != nil {
				return err
			}
			c = added
		} else if container != "" {
			existing, ok := b.Container(container)
			if !ok {
				return fmt.Errorf("%w: %q", env.ErrUnknownContainer, container)
			}
			c = existing
		}

		if c != nil {
			for _, k := range sortedKeys(envVars) {
				c.WithEnv(k, envVars[k])
			}
			for _, k := range sortedKeys(mounts) {
				c.WithMount(k, mounts[k])
			}
			if len(command) > 0 {
				c.WithCommand(command...)
			}
		}
		for _, k := range sortedKeys(settings) {
			b.Set(k, settings[k])
		}
		return nil
	}
	return m, nil
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
