// spec.go translates a composed env.Definition into Docker Engine API
// create parameters. The container runtime (a test harness, or
// `docker compose` via RenderCompose) consumes these; the launcher itself
// never starts containers.
package docker

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"

	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/port"
)

// maxHostPort is the largest TCP port a host can publish on.
const maxHostPort = 65535

// ErrPortOutOfRange is returned when a binder produced a host port that
// cannot exist, typically a container port shifted past 65535.
var ErrPortOutOfRange = errors.New("host port out of range")

// ContainerSpec holds everything needed for one ContainerCreate call.
type ContainerSpec struct {
	// Name is the container name, also used as its hostname on the
	// environment network.
	Name string

	// Network is the user-defined bridge network shared by all containers
	// of the environment.
	Network string

	Config     *container.Config
	HostConfig *container.HostConfig
}

// NetworkName returns the Docker network name for an environment.
func NetworkName(def *env.Definition) string {
	return "launcher-" + def.Environment
}

// ContainerSpecs builds one ContainerSpec per container of def, in module
// order. Ports bound with an ephemeral host port get an empty HostPort so
// Docker assigns one.
func ContainerSpecs(def *env.Definition) ([]ContainerSpec, error) {
	network := NetworkName(def)
	containers := def.Containers()
	specs := make([]ContainerSpec, 0, len(containers))

	for _, c := range containers {
		exposed, bindings, err := portBindings(def.ContainerPorts(c.Name))
		if err != nil {
			return nil, fmt.Errorf("container %q: %w", c.Name, err)
		}

		specs = append(specs, ContainerSpec{
			Name:    c.Name,
			Network: network,
			Config: &container.Config{
				Hostname:     c.Name,
				Image:        c.Image,
				Env:          envList(c.Env),
				Cmd:          c.Command,
				Labels:       BuildLabels(def, c),
				ExposedPorts: exposed,
			},
			HostConfig: &container.HostConfig{
				PortBindings: bindings,
				Binds:        bindList(c.Mounts),
				NetworkMode:  container.NetworkMode(network),
			},
		})
	}
	return specs, nil
}

// portBindings converts bindings into Docker's port vocabulary.
func portBindings(ports []env.PortBinding) (nat.PortSet, nat.PortMap, error) {
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))

	for _, p := range ports {
		natPort, err := nat.NewPort("tcp", strconv.Itoa(p.ContainerPort))
		if err != nil {
			return nil, nil, err
		}
		hostPort, err := hostPortString(p.Host)
		if err != nil {
			return nil, nil, fmt.Errorf("container port %d: %w", p.ContainerPort, err)
		}
		exposed[natPort] = struct{}{}
		bindings[natPort] = append(bindings[natPort], nat.PortBinding{HostPort: hostPort})
	}
	return exposed, bindings, nil
}

// hostPortString renders a HostPort for nat.PortBinding; "" means any.
func hostPortString(h port.HostPort) (string, error) {
	if h.Ephemeral {
		return "", nil
	}
	if h.Port < 1 || h.Port > maxHostPort {
		return "", fmt.Errorf("%w: %d", ErrPortOutOfRange, h.Port)
	}
	return strconv.Itoa(h.Port), nil
}

// envList renders environment variables as sorted KEY=value pairs.
func envList(vars map[string]string) []string {
	if len(vars) == 0 {
		return nil
	}
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// bindList renders mounts as sorted host:container bind specs.
func bindList(mounts map[string]string) []string {
	if len(mounts) == 0 {
		return nil
	}
	out := make([]string, 0, len(mounts))
	for host, target := range mounts {
		out = append(out, host+":"+target)
	}
	sort.Strings(out)
	return out
}
