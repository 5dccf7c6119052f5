package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/additions"
	"github.com/grafana/create-plugin/internal/config"
	"github.com/grafana/create-plugin/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add <addition>",
	Short: "Add an optional feature to the plugin",
	Long: `Add runs one addition against the plugin, for example:

  create-plugin add i18n --option locales=en-US,es-ES

Use "create-plugin list additions" to see what is available.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return withExitCode(config.ExitInvalidArguments, fmt.Errorf(
				"expected exactly one addition, available additions: %s",
				strings.Join(additions.Default().Names(), ", ")))
		}
		return nil
	},
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

		report, err := pc.Additions().Run(commandContext(cmd), args, options, codemods.RunOptions{
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
		ui.PrintSuccess(fmt.Sprintf("Successfully added %s to your plugin.", args[0]))
		return nil
	},
}

func init() {
	addRunFlags(addCmd)
	addCmd.Flags().StringArray("option", nil, "Addition option as key=value (repeatable)")
	rootCmd.AddCommand(addCmd)
}
