// status.go implements the "launcher status" command.
//
// status queries Docker for containers carrying the launcher labels and
// groups them by environment. It needs a reachable Docker daemon but no
// catalog: everything it reports comes from the labels written by
// ContainerSpecs and RenderCompose.
package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/launcher/internal/docker"
	"github.com/shinji-kodama/launcher/internal/model"
)

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	// environment narrows the query to one environment.
	environment string
}

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show containers started from launcher definitions",
		Long: `Show the containers started from launcher definitions, grouped by
environment. Containers are found by their launcher.* labels.

Examples:
  launcher status
  launcher status --environment singlenode-kafka --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.environment, "environment", "", "Only show this environment")

	return cmd
}

// runStatus connects to Docker, lists managed containers and prints them.
func runStatus(ctx context.Context, w io.Writer, flags *statusFlags) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	containers, err := docker.ListManagedContainers(ctx, cli, flags.environment)
	if err != nil {
		return err
	}
	VerboseLog("Found %d managed containers", len(containers))

	result := buildStatusResult(docker.GroupContainersByEnvironment(containers))
	if IsJSONOutput() {
		return printJSON(w, result)
	}
	printStatusText(w, result)
	return nil
}

// statusEnvJSON is the JSON output structure for one environment.
type statusEnvJSON struct {
	Name       string                `json:"name"`
	Status     string                `json:"status"`
	Config     string                `json:"config"`
	Containers []model.ContainerInfo `json:"containers"`
}

type statusResult struct {
	Environments []statusEnvJSON `json:"environments"`
}

// buildStatusResult orders the groups by environment name. The config is
// read from the labels; containers of one environment share it.
func buildStatusResult(groups map[string][]model.ContainerInfo) statusResult {
	result := statusResult{Environments: make([]statusEnvJSON, 0, len(groups))}

	for name, containers := range groups {
		entry := statusEnvJSON{
			Name:       name,
			Status:     docker.EnvironmentStatus(containers),
			Containers: containers,
		}
		for _, c := range containers {
			if info, err := docker.ParseLabels(c.Labels); err == nil {
				entry.Config = info.Config
				break
			}
		}
		result.Environments = append(result.Environments, entry)
	}

	sort.Slice(result.Environments, func(i, j int) bool {
		return result.Environments[i].Name < result.Environments[j].Name
	})
	return result
}

// printStatusText outputs one row per environment.
//
//	ENVIRONMENT                    STATUS     CONFIG     CONTAINERS
//	singlenode-kafka               running    default    kafka,presto-master,zookeeper
func printStatusText(w io.Writer, result statusResult) {
	if len(result.Environments) == 0 {
		fmt.Fprintln(w, "No launcher environments found.")
		return
	}

	fmt.Fprintf(w, "%-30s %-10s %-14s %s\n", "ENVIRONMENT", "STATUS", "CONFIG", "CONTAINERS")
	for _, e := range result.Environments {
		names := make([]string, 0, len(e.Containers))
		for _, c := range e.Containers {
			names = append(names, c.ContainerName)
		}
		config := e.Config
		if config == "" {
			config = "-"
		}
		fmt.Fprintf(w, "%-30s %-10s %-14s %s\n", e.Name, e.Status, config, strings.Join(names, ","))
	}
}
