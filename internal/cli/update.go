package cli

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/migrations"
	"github.com/grafana/create-plugin/internal/config"
	"github.com/grafana/create-plugin/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the migrations between the plugin's version and this release",
	Long: `Update runs every migration newer than the create-plugin version recorded
in .config/.cprc.json, up to this release, and then records the new version.

With --commit each migration is committed separately, followed by a commit
for the config bump, so every step can be reviewed or reverted on its own.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		commit := mustGetBool(cmd, "commit")
		force := mustGetBool(cmd, "force")
		dryRun := mustGetBool(cmd, "dry-run")
		from := mustGetString(cmd, "from")
		to := mustGetString(cmd, "to")

		pc, err := OpenProject(cmd)
		if err != nil {
			return err
		}
		if err := pc.CheckPlugin(force); err != nil {
			return err
		}

		if from == "" {
			cfg, err := config.Load(pc.Root)
			if err != nil {
				return withExitCode(config.ExitConfigurationError, err)
			}
			from = cfg.Version
		}
		if from == config.VersionUnknown {
			return &preconditionError{
				Title: "Could not determine the create-plugin version of this plugin.",
				Hint:  fmt.Sprintf("%s has no version. Pass --from with the version the plugin was created or last updated with.", config.RootConfigPath),
			}
		}

		mgr := pc.Migrations()
		if to == "" {
			to = targetVersion(Version, mgr.Registry())
		}

		needed, err := migrations.NeedsUpdate(from, to)
		if err != nil {
			return err
		}
		if !needed {
			ui.PrintInfo("Nothing to update, exiting.")
			return nil
		}

		ui.PrintInfo(fmt.Sprintf("Running migrations from %s to %s.", from, to))
		report, err := mgr.Update(commandContext(cmd), config.RunConfig{
			FromVersion:         from,
			ToVersion:           to,
			CommitEachMigration: commit,
			Force:               force,
			DryRun:              dryRun,
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
		ui.PrintSuccess("Update successful")
		return nil
	},
}

// targetVersion is the release being updated to. Development builds carry
// no usable version, so they target the newest registered migration.
func targetVersion(version string, registry *migrations.Registry) string {
	if v, err := semver.NewVersion(version); err == nil {
		return v.String()
	}
	return registry.Latest()
}

func printSummary(report *codemods.Report) {
	applied := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		if len(r.Changes) > 0 {
			applied = append(applied, r.Name)
		}
	}
	if len(applied) > 0 {
		ui.PrintInfo("Changed by: " + strings.Join(applied, ", "))
	}
	if report.Installed {
		ui.PrintInfo("Dependencies installed.")
	}
}

func init() {
	addRunFlags(updateCmd)
	updateCmd.Flags().String("from", "", "Version to migrate from (defaults to the version in .config/.cprc.json)")
	updateCmd.Flags().String("to", "", "Version to migrate to (defaults to this release)")
	rootCmd.AddCommand(updateCmd)
}
