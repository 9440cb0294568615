// Package port decides which host port each container port is published on.
//
// Three policies are available, selected once per composition:
//
//	Default   host port left to the container runtime (ephemeral)
//	Fixed     hostPort = containerPort
//	Shifting  hostPort = containerPort + offset
//
// Shifting lets several environments run on one host: each gets its own
// offset while the container-internal ports stay unchanged. The Scanner
// probes the host with net.Listen so the CLI can warn when a computed host
// port is already taken.
package port
