// Package docker connects composed environments to the Docker Engine.
//
// This package handles:
//   - Translating an env.Definition into ContainerCreate parameters
//     (container.Config, container.HostConfig with nat port maps)
//   - Rendering the same definition as a Docker Compose file
//   - Container label management, so running containers can be traced
//     back to their environment, config and module
//   - Validating definitions for host port collisions before start
//   - Listing labelled containers for `launcher status`
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
