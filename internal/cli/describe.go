// describe.go implements the "launcher describe" command.
//
// describe composes an environment from the catalog with the selected
// config and port binding mode and prints the resulting definition. The
// compose format is the hand-off to `docker compose`; text, JSON and YAML
// are for people and scripts inspecting the composition.
//
// Definitions are checked after composition: host port collisions (which
// the fixed binder produces when two modules expose the same port) and
// out-of-range shifted ports are reported as warnings, and --check-ports
// additionally probes the host for ports that are already taken.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/docker"
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/model"
	"github.com/shinji-kodama/launcher/internal/options"
	"github.com/shinji-kodama/launcher/internal/port"
)

// Output formats accepted by --format.
const (
	formatText    = "text"
	formatJSON    = "json"
	formatYAML    = "yaml"
	formatCompose = "compose"
)

// describeFlags holds the flag values for the describe command.
type describeFlags struct {
	config        string
	bindPorts     int
	serverPackage string
	debug         bool
	format        string
	output        string
	checkPorts    bool
	all           bool
}

// options converts the flags into launcher options for environment.
func (f *describeFlags) options(environment string) options.Options {
	return options.Options{
		Environment:   environment,
		Config:        f.config,
		BindPorts:     f.bindPorts,
		ServerPackage: f.serverPackage,
		Debug:         f.debug,
	}
}

// NewDescribeCommand creates the "describe" cobra command.
func NewDescribeCommand() *cobra.Command {
	flags := &describeFlags{}

	cmd := &cobra.Command{
		Use:   "describe <environment>",
		Short: "Compose an environment and print its definition",
		Long: `Compose an environment from its modules and print the definition:
containers, host port bindings and merged settings.

--bind-ports selects how container ports are published on the host:
  -1  let Docker pick a free port (default)
   0  publish each port on the same host port
   N  publish each port on container port + N

Examples:
  launcher describe singlenode
  launcher describe singlenode-kafka-ssl --config hdp3 --bind-ports 0
  launcher describe multinode --bind-ports 10000 --format compose --output ./compose.yaml
  launcher describe --all --json`,

		Args: cobra.RangeArgs(0, 1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd.OutOrStdout(), args, flags)
		},
	}

	defaults := options.Default()
	cmd.Flags().StringVar(&flags.config, "config", defaults.Config, "Config overlay to resolve")
	cmd.Flags().IntVar(&flags.bindPorts, "bind-ports", defaults.BindPorts,
		"Port binding: -1 ephemeral, 0 fixed, N shift by N")
	cmd.Flags().StringVar(&flags.serverPackage, "server-package", "",
		fmt.Sprintf("Server tarball mounted into Trino containers (default: %s)", catalog.DefaultServerPackage))
	cmd.Flags().BoolVar(&flags.debug, "debug", false,
		fmt.Sprintf("Start Trino containers with a JDWP agent on port %d", catalog.DebugPort))
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text, json, yaml, compose")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write compose output to this file instead of stdout")
	cmd.Flags().BoolVar(&flags.checkPorts, "check-ports", false, "Warn about bound host ports that are already in use")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Compose every environment in the catalog")

	return cmd
}

// runDescribe is the main logic function for the describe command.
func runDescribe(w io.Writer, args []string, flags *describeFlags) error {
	format, err := describeFormat(flags)
	if err != nil {
		return err
	}
	if flags.all != (len(args) == 0) {
		return model.NewCLIError(model.ExitInvalidOptions, "specify either an environment or --all")
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	if flags.all {
		defs, err := composeAll(cat, flags.options(""))
		if err != nil {
			return classify("failed to compose environments", err)
		}
		for _, def := range defs {
			checkDefinition(def, flags.checkPorts)
		}
		return renderAll(w, defs, format)
	}

	opts := flags.options(args[0])
	VerboseLog("Composing %q with config %q, bind-ports %d", opts.Environment, opts.ConfigName(), opts.BindPorts)

	def, err := opts.Compose(cat)
	if err != nil {
		return classify(fmt.Sprintf("failed to compose environment %q", opts.Environment), err)
	}
	VerboseLog("Applied modules: %s", strings.Join(def.ModuleNames(), ", "))
	checkDefinition(def, flags.checkPorts)

	data, err := renderDefinition(def, format)
	if err != nil {
		return classify("failed to render definition", err)
	}

	if flags.output != "" {
		if err := docker.WriteCompose(flags.output, data); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to write output", err)
		}
		VerboseLog("Compose file written to: %s", flags.output)
		return nil
	}
	_, err = w.Write(data)
	return err
}

// describeFormat returns the effective output format. --json overrides
// --format; --output and --all are only valid with some formats.
func describeFormat(flags *describeFlags) (string, error) {
	format := flags.format
	if IsJSONOutput() {
		format = formatJSON
	}

	switch format {
	case formatText, formatJSON, formatYAML, formatCompose:
	default:
		return "", model.NewCLIError(model.ExitInvalidOptions,
			fmt.Sprintf("invalid format %q: valid values are text, json, yaml, compose", format))
	}

	if flags.output != "" && format != formatCompose {
		return "", model.NewCLIError(model.ExitInvalidOptions, "--output requires --format compose")
	}
	if flags.all && format == formatCompose {
		return "", model.NewCLIError(model.ExitInvalidOptions, "--all cannot be combined with --format compose")
	}
	return format, nil
}

// composeAll composes every catalog environment with the same options.
// Compositions run concurrently; the catalog is read-only and every
// composition has its own builder. Results keep catalog order.
func composeAll(cat *catalog.Catalog, base options.Options) ([]*env.Definition, error) {
	names := cat.EnvironmentNames()
	defs := make([]*env.Definition, len(names))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			opts := base
			opts.Environment = name
			def, err := opts.Compose(cat)
			if err != nil {
				return fmt.Errorf("environment %q: %w", name, err)
			}
			defs[i] = def
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	VerboseLog("Composed %d environment(s)", len(defs))
	return defs, nil
}

// checkDefinition warns about problems that would surface when the
// containers are started.
func checkDefinition(def *env.Definition, probeHost bool) {
	for _, verr := range docker.ValidateDefinition(def) {
		warn("%s: %s", def.Environment, verr.Error())
	}
	if !probeHost {
		return
	}
	ports := docker.HostPorts(def)
	VerboseLog("Probing %d host port(s) for %s", len(ports), def.Environment)
	for _, p := range port.NewScanner().Busy(ports) {
		warn("%s: host port %d is already in use", def.Environment, p)
	}
}

// renderDefinition serializes def in format.
func renderDefinition(def *env.Definition, format string) ([]byte, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case formatYAML:
		return yaml.Marshal(def)
	case formatCompose:
		return docker.RenderCompose(def)
	default:
		var buf bytes.Buffer
		printDefinitionText(&buf, def)
		return buf.Bytes(), nil
	}
}

// renderAll writes several definitions: a summary table for text, a
// list for JSON and YAML.
func renderAll(w io.Writer, defs []*env.Definition, format string) error {
	switch format {
	case formatJSON:
		return printJSON(w, defs)
	case formatYAML:
		data, err := yaml.Marshal(defs)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		fmt.Fprintf(w, "%-30s %-12s %-11s %s\n", "ENVIRONMENT", "CONTAINERS", "BINDINGS", "MODULES")
		for _, def := range defs {
			fmt.Fprintf(w, "%-30s %-12d %-11d %s\n",
				def.Environment,
				len(def.Containers()),
				len(def.Ports),
				strings.Join(def.ModuleNames(), ","),
			)
		}
		return nil
	}
}

// printDefinitionText outputs a definition as a human-readable report.
//
// The format is:
//
//	Environment: singlenode-kafka
//	Config:      default
//	Port binder: fixed
//
//	MODULE                  CONTAINER           IMAGE
//	standard                presto-master       testing/centos7-oj17:80
//
//	CONTAINER               PORT    HOST
//	presto-master           8080    8080
//
//	SETTINGS
//	kafka.nodes = kafka:9092
func printDefinitionText(w io.Writer, def *env.Definition) {
	fmt.Fprintf(w, "Environment: %s\n", def.Environment)
	fmt.Fprintf(w, "Config:      %s\n", def.Config)
	fmt.Fprintf(w, "Port binder: %s\n", def.Binder)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-23s %-19s %s\n", "MODULE", "CONTAINER", "IMAGE")
	for _, m := range def.Modules {
		if len(m.Containers) == 0 {
			fmt.Fprintf(w, "%-23s %-19s %s\n", m.Name, "-", "-")
			continue
		}
		for _, c := range m.Containers {
			fmt.Fprintf(w, "%-23s %-19s %s\n", m.Name, c.Name, c.Image)
		}
	}

	if len(def.Ports) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-23s %-7s %s\n", "CONTAINER", "PORT", "HOST")
		for _, p := range def.Ports {
			fmt.Fprintf(w, "%-23s %-7d %s\n", p.Container, p.ContainerPort, p.Host.String())
		}
	}

	if len(def.Settings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "SETTINGS")
		keys := make([]string, 0, len(def.Settings))
		for k := range def.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s = %s\n", k, def.Settings[k])
		}
	}
}
