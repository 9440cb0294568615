// compose.go renders a composed environment as a Docker Compose file.
//
// The compose file is the hand-off format for running an environment
// outside of a test harness: `docker compose -f <file> up -d` starts the
// same containers ContainerSpecs describes, on one project network, with
// the same labels and published ports.
package docker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/launcher/internal/env"
)

// composeFile is the top-level structure of the generated compose YAML.
type composeFile struct {
	// Name sets the Compose project name, which prefixes volumes and the
	// default network.
	Name string `yaml:"name"`

	// Services maps container names to service definitions. yaml.v3 emits
	// map keys in sorted order, which keeps the output deterministic.
	Services map[string]composeService `yaml:"services"`
}

// composeService is one container of the environment.
type composeService struct {
	Image       string            `yaml:"image"`
	Hostname    string            `yaml:"hostname"`
	Command     []string          `yaml:"command,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`

	// Ports uses "host:container" for bound ports and "container" when
	// Docker should pick the host port.
	Ports   []string          `yaml:"ports,omitempty"`
	Volumes []string          `yaml:"volumes,omitempty"`
	Labels  map[string]string `yaml:"labels"`

	// DependsOn lists containers of the modules this container's module
	// requires, so Compose starts them first.
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// RenderCompose serializes def as compose YAML. Identical definitions
// render to identical bytes.
func RenderCompose(def *env.Definition) ([]byte, error) {
	specs, err := ContainerSpecs(def)
	if err != nil {
		return nil, err
	}

	file := composeFile{
		Name:     NetworkName(def),
		Services: make(map[string]composeService, len(specs)),
	}

	owner := make(map[string]string)
	for _, c := range def.Containers() {
		owner[c.Name] = c.Module
	}

	for _, spec := range specs {
		svc := composeService{
			Image:     spec.Config.Image,
			Hostname:  spec.Config.Hostname,
			Command:   spec.Config.Cmd,
			Volumes:   spec.HostConfig.Binds,
			Labels:    spec.Config.Labels,
			DependsOn: dependencyContainers(def, owner[spec.Name]),
		}
		for _, c := range def.Containers() {
			if c.Name == spec.Name && len(c.Env) > 0 {
				svc.Environment = c.Env
			}
		}
		for _, b := range def.ContainerPorts(spec.Name) {
			if b.Host.Ephemeral {
				svc.Ports = append(svc.Ports, fmt.Sprintf("%d", b.ContainerPort))
				continue
			}
			svc.Ports = append(svc.Ports, fmt.Sprintf("%d:%d", b.Host.Port, b.ContainerPort))
		}
		file.Services[spec.Name] = svc
	}

	yamlBytes, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize compose YAML: %w", err)
	}

	header := fmt.Sprintf(
		"# Generated by launcher for environment %q (config %q, ports %s)\n# DO NOT EDIT - regenerate with `launcher describe --format compose`\n",
		def.Environment, def.Config, def.Binder,
	)
	return []byte(header + string(yamlBytes)), nil
}

// dependencyContainers returns the containers added by the modules that
// module requires. Requirements without containers of their own (such as
// hadoop-kerberos) are looked through to their own requirements.
func dependencyContainers(def *env.Definition, module string) []string {
	seen := make(map[string]bool)
	var out []string

	var visit func(name string)
	visit = func(name string) {
		m, ok := def.Module(name)
		if !ok {
			return
		}
		for _, req := range m.Requires {
			if seen[req] {
				continue
			}
			seen[req] = true
			dep, ok := def.Module(req)
			if !ok {
				continue
			}
			if len(dep.Containers) == 0 {
				visit(req)
				continue
			}
			for _, c := range dep.Containers {
				out = append(out, c.Name)
			}
		}
	}
	visit(module)

	sort.Strings(out)
	return out
}

// WriteCompose writes rendered compose YAML to outputPath, creating parent
// directories as needed.
func WriteCompose(outputPath string, data []byte) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write compose file to %s: %w", outputPath, err)
	}
	return nil
}
