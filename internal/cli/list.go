package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grafana/create-plugin/internal/codemods/additions"
	"github.com/grafana/create-plugin/internal/codemods/migrations"
	"github.com/grafana/create-plugin/internal/ui"
)

var listCmd = &cobra.Command{
	Use:       "list [migrations|additions]",
	Short:     "List registered migrations and additions",
	ValidArgs: []string{"migrations", "additions"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := ""
		if len(args) == 1 {
			kind = args[0]
		}
		out := cmd.OutOrStdout()

		if kind == "" || kind == "migrations" {
			fmt.Fprintln(out, ui.HeaderStyle.Render("Migrations"))
			fmt.Fprint(out, ui.RenderTable([]string{"NAME", "VERSION", "DESCRIPTION"}, migrationRows(migrations.Default())))
		}
		if kind == "" || kind == "additions" {
			fmt.Fprintln(out, ui.HeaderStyle.Render("Additions"))
			fmt.Fprint(out, ui.RenderTable([]string{"NAME", "DESCRIPTION"}, additionRows(additions.Default())))
		}
		return nil
	},
}

func migrationRows(registry *migrations.Registry) [][]string {
	all := registry.All()
	rows := make([][]string, 0, len(all))
	for _, m := range all {
		rows = append(rows, []string{m.Name, m.Version, m.Description})
	}
	return rows
}

func additionRows(registry *additions.Registry) [][]string {
	all := registry.All()
	rows := make([][]string, 0, len(all))
	for _, a := range all {
		rows = append(rows, []string{a.Name, a.Description})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(listCmd)
}
