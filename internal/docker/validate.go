// validate.go checks a composed definition for problems that only show up
// once containers are started: two bindings on the same host port, host
// ports outside the TCP range, and containers without an image.
package docker

import (
	"fmt"
	"sort"

	"github.com/shinji-kodama/launcher/internal/env"
)

// ValidationError is one problem found in a definition.
type ValidationError struct {
	// Field locates the problem, e.g. "ports.4444" or "containers.kafka".
	Field string

	// Message describes what's wrong.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("definition validation error: %s: %s", e.Field, e.Message)
}

// ValidateDefinition returns the problems found in def, sorted by field.
// An empty result means the definition can be started as is.
//
// Host port collisions are reported rather than prevented: the fixed
// binder maps every container port to itself, so two modules exposing the
// same port collide on the host.
func ValidateDefinition(def *env.Definition) []ValidationError {
	var errs []ValidationError

	byHostPort := make(map[int][]env.PortBinding)
	for _, p := range def.Ports {
		if p.Host.Ephemeral {
			continue
		}
		if _, err := hostPortString(p.Host); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("ports.%d", p.ContainerPort),
				Message: fmt.Sprintf("%s/%s: %v", p.Module, p.Container, err),
			})
			continue
		}
		byHostPort[p.Host.Port] = append(byHostPort[p.Host.Port], p)
	}

	for hostPort, bindings := range byHostPort {
		if len(bindings) < 2 {
			continue
		}
		users := make([]string, 0, len(bindings))
		for _, b := range bindings {
			users = append(users, fmt.Sprintf("%s/%s:%d", b.Module, b.Container, b.ContainerPort))
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("ports.%d", hostPort),
			Message: fmt.Sprintf("host port %d is bound more than once: %v", hostPort, users),
		})
	}

	for _, c := range def.Containers() {
		if c.Image == "" {
			errs = append(errs, ValidationError{
				Field:   "containers." + c.Name,
				Message: fmt.Sprintf("module %s added the container without an image", c.Module),
			})
		}
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// HostPorts returns the distinct non-ephemeral host ports of def, sorted.
func HostPorts(def *env.Definition) []int {
	seen := make(map[int]bool)
	var out []int
	for _, p := range def.Ports {
		if p.Host.Ephemeral || seen[p.Host.Port] {
			continue
		}
		seen[p.Host.Port] = true
		out = append(out, p.Host.Port)
	}
	sort.Ints(out)
	return out
}
