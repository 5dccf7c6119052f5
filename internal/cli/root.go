package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/grafana/create-plugin/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "create-plugin",
	Short: "Keep Grafana plugins up to date with create-plugin migrations",
	Long: `create-plugin updates Grafana plugin projects by running codemods:
versioned migrations that bring a plugin's tooling up to the current
create-plugin release, and additions that enable optional features.

Changes are staged in memory and only written once every codemod succeeds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if mustGetBool(cmd, "no-color") {
			ui.DisableColor()
		}
		ui.SetQuiet(mustGetBool(cmd, "quiet"))
		ui.SetInteractive(!mustGetBool(cmd, "no-interactive"))
	},
}

// Execute runs the root command. An interrupt cancels the run between
// codemods.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil || ui.IsAbort(err) {
		return err
	}

	var pe *preconditionError
	if errors.As(err, &pe) {
		ui.PrintErrorWithHint(pe.Title, pe.Hint)
	} else {
		ui.PrintError(err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().Bool("no-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().String("cwd", "", "Plugin directory (defaults to the current directory)")
}

// addRunFlags registers the flags shared by commands that run codemods.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("commit", false, "Commit the changes of each codemod separately")
	cmd.Flags().Bool("force", false, "Skip the git and plugin directory checks")
	cmd.Flags().Bool("dry-run", false, "Show what would change without writing anything")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func mustGetString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: flag %q not defined: %v", name, err))
	}
	return value
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: flag %q not defined: %v", name, err))
	}
	return value
}

func mustGetStringArray(cmd *cobra.Command, name string) []string {
	value, err := cmd.Flags().GetStringArray(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: flag %q not defined: %v", name, err))
	}
	return value
}
