// container.go discovers containers created from launcher definitions.
// Discovery is label based: every container carries the labels produced
// by BuildLabels, so no state file is needed to answer `launcher status`.
package docker

import (
	"context"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/shinji-kodama/launcher/internal/model"
)

// containerLister is the subset of the Docker SDK client used here.
type containerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// ListManagedContainers returns every container, running or not, that
// carries the launcher management label. A non-empty environment narrows
// the result to that environment. Filtering happens daemon side.
func ListManagedContainers(ctx context.Context, cli *Client, environment string) ([]model.ContainerInfo, error) {
	return listManagedContainers(ctx, cli.inner, environment)
}

func listManagedContainers(ctx context.Context, lister containerLister, environment string) ([]model.ContainerInfo, error) {
	args := filters.NewArgs()
	for k, v := range FilterLabels(environment) {
		args.Add("label", k+"="+v)
	}

	containers, err := lister.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: args,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}
	return result, nil
}

// containerToInfo maps a Docker API summary to model.ContainerInfo. Docker
// reports names with a leading "/", which is stripped.
func containerToInfo(c container.Summary) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Environment:   c.Labels[LabelEnvironment],
		Module:        c.Labels[LabelModule],
		Status:        c.State,
		Labels:        c.Labels,
	}
}

// GroupContainersByEnvironment groups containers by their environment
// label. Containers without one are skipped. Each group is sorted by
// container name.
func GroupContainersByEnvironment(containers []model.ContainerInfo) map[string][]model.ContainerInfo {
	groups := make(map[string][]model.ContainerInfo)

	for _, c := range containers {
		if c.Environment == "" {
			continue
		}
		groups[c.Environment] = append(groups[c.Environment], c)
	}
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].ContainerName < group[j].ContainerName })
	}
	return groups
}

// EnvironmentStatus summarises a group of containers: "running" if any is
// running, otherwise "stopped".
func EnvironmentStatus(containers []model.ContainerInfo) string {
	for _, c := range containers {
		if c.Status == container.StateRunning {
			return "running"
		}
	}
	return "stopped"
}
