package cli

import (
	"github.com/spf13/cobra"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/ui"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <migration>...",
	Short: "Run specific migrations by name",
	Long: `Migrate runs the named migrations in the order given, whatever version the
plugin is on. Use "create-plugin list migrations" to see what is available.

Options are passed as --option key=value and handed to every migration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commit := mustGetBool(cmd, "commit")
		force := mustGetBool(cmd, "force")
		dryRun := mustGetBool(cmd, "dry-run")

		options, err := parseOptions(mustGetStringArray(cmd, "option"))
		if err != nil {
			return err
		}

		pc, err := OpenProject(cmd)
		if err != nil {
			return err
		}
		if err := pc.CheckPlugin(force); err != nil {
			return err
		}

		report, err := pc.Migrations().RunNamed(commandContext(cmd), args, options, codemods.RunOptions{
			CommitEach: commit,
			DryRun:     dryRun,
		})
		if err != nil {
			return err
		}

		if dryRun {
			ui.PrintChanges(report.Pending)
			ui.PrintInfo("Dry run, no files were written.")
			return nil
		}
		printSummary(report)
		ui.PrintSuccess("Migrations complete")
		return nil
	},
}

func init() {
	addRunFlags(migrateCmd)
	migrateCmd.Flags().StringArray("option", nil, "Migration option as key=value (repeatable)")
	rootCmd.AddCommand(migrateCmd)
}
