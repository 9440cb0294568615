package docker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/port"
)

// Label key constants define the Docker label keys stamped on every
// container of a composed environment. They let `launcher status` map
// running containers back to the environment, config and module that
// declared them without any state file.
//
// All keys share the "launcher." prefix to avoid collisions with labels set
// by other tools (Docker Compose, testcontainers, etc.).
const (
	// LabelPrefix is the common prefix for all launcher labels.
	LabelPrefix = "launcher."

	// LabelManagedBy identifies containers created from a launcher
	// definition. Key: "launcher.managed-by", Value: always "launcher".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelEnvironment stores the environment name, e.g. "singlenode-kafka".
	LabelEnvironment = LabelPrefix + "environment"

	// LabelConfig stores the resolved config name, e.g. "hdp3".
	LabelConfig = LabelPrefix + "config"

	// LabelModule stores the module that added the container.
	LabelModule = LabelPrefix + "module"

	// LabelPortBinder stores the port binder description, e.g.
	// "shifting(+1000)".
	LabelPortBinder = LabelPrefix + "port-binder"

	// LabelPortPrefix is the prefix for per-port labels:
	//   "launcher.port.9092" = "10092"
	//   "launcher.port.8080" = "ephemeral"
	LabelPortPrefix = LabelPrefix + "port."
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "launcher"

// LabelInfo is the metadata recovered from a container's labels.
type LabelInfo struct {
	Environment string
	Config      string
	Module      string
	PortBinder  string
	Ports       map[int]port.HostPort
}

// BuildLabels constructs the label map for container c of def. Only the
// ports bound on c itself are encoded, so each container documents its
// own published ports.
func BuildLabels(def *env.Definition, c env.Container) map[string]string {
	labels := map[string]string{
		LabelManagedBy:   ManagedByValue,
		LabelEnvironment: def.Environment,
		LabelConfig:      def.Config,
		LabelModule:      c.Module,
		LabelPortBinder:  def.Binder,
	}
	for _, p := range def.ContainerPorts(c.Name) {
		labels[BuildPortLabel(p.ContainerPort)] = p.Host.String()
	}
	return labels
}

// ParseLabels recovers LabelInfo from a container's labels. It is the
// inverse of BuildLabels.
//
// Required labels: managed-by, environment, config, module. Missing
// required labels are all reported in one error.
func ParseLabels(labels map[string]string) (*LabelInfo, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelEnvironment,
		LabelConfig,
		LabelModule,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	ports, err := ParsePortLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse port labels: %w", err)
	}

	return &LabelInfo{
		Environment: labels[LabelEnvironment],
		Config:      labels[LabelConfig],
		Module:      labels[LabelModule],
		PortBinder:  labels[LabelPortBinder],
		Ports:       ports,
	}, nil
}

// BuildPortLabel generates the label key for a container port:
//
//	BuildPortLabel(9092) → "launcher.port.9092"
func BuildPortLabel(containerPort int) string {
	return fmt.Sprintf("%s%d", LabelPortPrefix, containerPort)
}

// ParsePortLabels extracts the port labels from a label map. The value is
// either a host port number or "ephemeral".
//
// Returns an empty (non-nil) map if no port labels are found.
func ParsePortLabels(labels map[string]string) (map[int]port.HostPort, error) {
	ports := make(map[int]port.HostPort)

	for key, value := range labels {
		if !strings.HasPrefix(key, LabelPortPrefix) {
			continue
		}

		containerPort, err := strconv.Atoi(strings.TrimPrefix(key, LabelPortPrefix))
		if err != nil {
			return nil, fmt.Errorf("invalid container port in label key %q: %w", key, err)
		}

		if value == port.Ephemeral.String() {
			ports[containerPort] = port.Ephemeral
			continue
		}
		hostPort, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid host port in label %q=%q: %w", key, value, err)
		}
		ports[containerPort] = port.HostPort{Port: hostPort}
	}

	return ports, nil
}

// FilterLabels returns the label filter that selects launcher containers,
// optionally narrowed to one environment.
func FilterLabels(environment string) map[string]string {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
	}
	if environment != "" {
		labels[LabelEnvironment] = environment
	}
	return labels
}
