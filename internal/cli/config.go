// config.go implements the "launcher config" command, which prints a
// resolved config overlay together with the chain it was resolved from.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/launcher/internal/envconfig"
)

// NewConfigCommand creates the "config" cobra command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config [name]",
		Short: "Print a resolved config overlay",
		Long: `Resolve a config overlay through its parent chain and print the
merged values. Values set by a child override those of its parents.

Examples:
  launcher config
  launcher config apache-hive3 --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			name := envconfig.DefaultName
			if len(args) == 1 {
				name = args[0]
			}

			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			resolved, err := cat.ConfigFactory().GetConfig(name)
			if err != nil {
				return classify(fmt.Sprintf("failed to resolve config %q", name), err)
			}
			VerboseLog("Resolved %q through %v", name, resolved.Chain)

			if IsJSONOutput() {
				return printJSON(cmd.OutOrStdout(), resolved)
			}
			printConfigText(cmd.OutOrStdout(), resolved)
			return nil
		},
	}
}

// printConfigText outputs the chain followed by the sorted values.
func printConfigText(w io.Writer, r envconfig.Resolved) {
	fmt.Fprintf(w, "Config: %s\n", r.Name)
	fmt.Fprintf(w, "Chain:  %s\n", joinOrDash(r.Chain, " > "))
	fmt.Fprintln(w)
	for _, k := range r.Keys() {
		fmt.Fprintf(w, "%s = %s\n", k, r.Get(k))
	}
}
