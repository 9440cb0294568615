package model

import (
	"fmt"
	"regexp"
)

// nameRegex validates catalog names: lower-case alphanumerics separated by
// single hyphens (e.g. "singlenode-kafka-ssl", "hdp3").
var nameRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateName checks if the given name can be used as a module,
// environment, or config name in the catalog.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid name %q: must be lower-case alphanumeric words separated by single hyphens", name)
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container that
// carries launcher labels. It is fetched from the Docker API, never persisted.
type ContainerInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the Docker container name without the leading "/".
	ContainerName string `json:"containerName"`

	// Environment is the composed environment the container belongs to.
	Environment string `json:"environment"`

	// Module is the module that declared the container.
	Module string `json:"module"`

	// Status is the Docker container state ("running", "exited", ...).
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines the process exit codes of the launcher CLI so that
// scripts and CI jobs can tell composition failures apart.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUnknownEnvironment indicates the requested environment is not
	// registered in the catalog.
	ExitUnknownEnvironment ExitCode = 2

	// ExitUnknownConfig indicates the requested config, or one of its
	// parents, is not registered.
	ExitUnknownConfig ExitCode = 3

	// ExitInvalidOptions indicates invalid launcher options, such as an
	// unsupported --bind-ports value.
	ExitInvalidOptions ExitCode = 4

	// ExitCompositionFailed indicates module resolution or application
	// failed (duplicate modules, dependency cycles, apply errors, config
	// cycles).
	ExitCompositionFailed ExitCode = 5

	// ExitRegistryError indicates the catalog could not be built, e.g. an
	// extension file shadows a built-in name.
	ExitRegistryError ExitCode = 6

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
