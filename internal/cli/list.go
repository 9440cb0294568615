// list.go implements the "launcher list" command.
//
// The list command prints what the catalog offers: environments with
// their modules in application order, configs with their parent chain,
// and modules with their direct requirements. Extension entries loaded
// with --extensions are listed alongside the built-ins.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/env"
)

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List environments, configs and modules",
		Long: `List the environments, configs and modules known to the catalog.

Examples:
  launcher list
  launcher list --json
  launcher list --extensions ./extra.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			result, err := buildListResult(cat)
			if err != nil {
				return classify("failed to list catalog", err)
			}
			if IsJSONOutput() {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printListResultText(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

// listResult is the JSON output structure of the list command.
type listResult struct {
	Environments []listEnvironmentJSON `json:"environments"`
	Configs      []listConfigJSON      `json:"configs"`
	Modules      []listModuleJSON      `json:"modules"`
}

type listEnvironmentJSON struct {
	Name    string   `json:"name"`
	Modules []string `json:"modules"`
}

type listConfigJSON struct {
	Name  string   `json:"name"`
	Chain []string `json:"chain"`
}

type listModuleJSON struct {
	Name     string   `json:"name"`
	Requires []string `json:"requires"`
	Builtin  bool     `json:"builtin"`
}

// buildListResult collects the catalog contents in lexical order. Slices
// are never nil so that JSON output shows [] instead of null.
func buildListResult(cat *catalog.Catalog) (listResult, error) {
	result := listResult{
		Environments: make([]listEnvironmentJSON, 0),
		Configs:      make([]listConfigJSON, 0),
		Modules:      make([]listModuleJSON, 0),
	}

	registry := cat.EnvironmentFactory()
	for _, name := range cat.EnvironmentNames() {
		modules, err := registry.Modules(name)
		if err != nil {
			return listResult{}, err
		}
		result.Environments = append(result.Environments, listEnvironmentJSON{
			Name:    name,
			Modules: moduleNames(modules),
		})
	}

	configs := cat.ConfigFactory()
	for _, name := range cat.ConfigNames() {
		chain, err := configs.Chain(name)
		if err != nil {
			return listResult{}, err
		}
		result.Configs = append(result.Configs, listConfigJSON{Name: name, Chain: chain})
	}

	for _, name := range cat.ModuleNames() {
		m, _ := cat.Module(name)
		result.Modules = append(result.Modules, listModuleJSON{
			Name:     name,
			Requires: m.RequiredNames(),
			Builtin:  cat.IsBuiltin(name),
		})
	}
	return result, nil
}

// printListResultText outputs the catalog as three aligned tables.
//
// The format is:
//
//	ENVIRONMENT            MODULES
//	singlenode-kafka       standard,kafka
//
//	CONFIG                 CHAIN
//	hdp3                   default > hdp3
//
//	MODULE                 REQUIRES
//	kafka-ssl              kafka
func printListResultText(w io.Writer, result listResult) {
	fmt.Fprintf(w, "%-30s %s\n", "ENVIRONMENT", "MODULES")
	for _, e := range result.Environments {
		fmt.Fprintf(w, "%-30s %s\n", e.Name, joinOrDash(e.Modules, ","))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-30s %s\n", "CONFIG", "CHAIN")
	for _, c := range result.Configs {
		fmt.Fprintf(w, "%-30s %s\n", c.Name, joinOrDash(c.Chain, " > "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-30s %s\n", "MODULE", "REQUIRES")
	for _, m := range result.Modules {
		name := m.Name
		if !m.Builtin {
			name += " *"
		}
		fmt.Fprintf(w, "%-30s %s\n", name, joinOrDash(m.Requires, ","))
	}
}

func moduleNames(modules []*env.Module) []string {
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	return names
}

// joinOrDash joins items with sep, or returns "-" for an empty slice.
func joinOrDash(items []string, sep string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, sep)
}
