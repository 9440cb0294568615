// Package model defines the shared value types for the launcher CLI.
//
// The package has no external dependencies. It holds catalog name
// validation, ContainerInfo snapshots reconstructed from Docker labels at
// runtime, and the exit codes (ExitCode) carried by CLIError so the CLI can
// map composition failures onto distinct process exit statuses.
package model
