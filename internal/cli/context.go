package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/codemods/additions"
	"github.com/grafana/create-plugin/internal/codemods/migrations"
	"github.com/grafana/create-plugin/internal/config"
	"github.com/grafana/create-plugin/internal/format"
	"github.com/grafana/create-plugin/internal/git"
	"github.com/grafana/create-plugin/internal/packagemanager"
	"github.com/grafana/create-plugin/internal/ui"
)

// ProjectContext is the plugin project a command operates on, plus the
// collaborators every codemod run shares.
type ProjectContext struct {
	Root    string
	Logger  *log.Logger
	Verbose bool

	committer    *git.Committer
	runnerOpts   []codemods.RunnerOption
	runnerInit   sync.Once
	migrationMgr *migrations.Manager
	additionMgr  *additions.Manager
	managersInit sync.Once
}

// OpenProject resolves the project root from --cwd (or the working
// directory) and sets up logging from the global flags.
func OpenProject(cmd *cobra.Command) (*ProjectContext, error) {
	root := mustGetString(cmd, "cwd")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, withExitCode(config.ExitInvalidArguments, fmt.Errorf("%s is not a directory", root))
	}

	verbose := mustGetBool(cmd, "verbose")
	return &ProjectContext{
		Root:      root,
		Logger:    newLogger(verbose, mustGetBool(cmd, "quiet")),
		Verbose:   verbose,
		committer: git.NewCommitter(),
	}, nil
}

func newLogger(verbose, quiet bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "create-plugin",
		Level:  log.WarnLevel,
	})
	switch {
	case verbose:
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	}
	return logger
}

// CheckPlugin makes sure the project is a clean git work tree holding a
// plugin, so a run can be reviewed and reverted. With force a failed check
// only asks for confirmation on a terminal.
func (pc *ProjectContext) CheckPlugin(force bool) error {
	err := pc.preconditions()
	if err == nil || !force {
		return err
	}

	ui.PrintWarning(err.Error() + " Continuing because of --force.")
	if !ui.IsInteractive() {
		return nil
	}
	ok, promptErr := ui.Confirm(err.Error() + " Continue anyway?")
	if promptErr != nil {
		return promptErr
	}
	if !ok {
		return ui.ErrCancelled
	}
	return nil
}

func (pc *ProjectContext) preconditions() error {
	hint := "This check makes sure changes are easy to review and revert. Use --force to proceed anyway."

	if !git.IsRepository(pc.Root) {
		return &preconditionError{
			Title: "You are not inside a git directory.",
			Hint:  `Run "git init" in the root of your project and commit your changes. ` + hint,
		}
	}

	clean, err := git.IsClean(pc.Root)
	if err != nil {
		return withExitCode(config.ExitGitOperationFailed, err)
	}
	if !clean {
		return &preconditionError{
			Title: "Please clean your repository working tree before updating.",
			Hint:  "Commit your changes or stash them. " + hint,
		}
	}

	if _, err := os.Stat(filepath.Join(pc.Root, filepath.FromSlash(config.PluginJSONPath))); err != nil {
		return &preconditionError{
			Title: "Are you inside a plugin directory?",
			Hint:  fmt.Sprintf("Could not find %q under %s. ", config.PluginJSONPath, pc.Root) + hint,
		}
	}
	return nil
}

// RunnerOptions are the side effects of a real run: change reports,
// prettier, dependency install behind a spinner.
func (pc *ProjectContext) RunnerOptions() []codemods.RunnerOption {
	pc.runnerInit.Do(func() {
		installerOpts := []packagemanager.Option{packagemanager.WithLogger(pc.Logger)}
		if pc.Verbose {
			installerOpts = append(installerOpts, packagemanager.WithOutput(os.Stdout))
		}
		pc.runnerOpts = []codemods.RunnerOption{
			codemods.WithReporter(ui.NewChangeReporter(os.Stdout, pc.Verbose)),
			codemods.WithFormatter(format.NewPrettier(format.WithLogger(pc.Logger))),
			codemods.WithInstaller(spinnerInstaller{packagemanager.NewInstaller(installerOpts...)}),
		}
	})
	return pc.runnerOpts
}

func (pc *ProjectContext) initManagers() {
	pc.managersInit.Do(func() {
		registry := migrations.Default()
		registry.MustRegister(migrations.Example().All()...)

		pc.migrationMgr = migrations.NewManager(pc.Root, registry,
			migrations.WithLogger(pc.Logger),
			migrations.WithCommitter(pc.committer),
			migrations.WithRunnerOptions(pc.RunnerOptions()...),
		)
		pc.additionMgr = additions.NewManager(pc.Root, additions.Default(),
			additions.WithLogger(pc.Logger),
			additions.WithCommitter(pc.committer),
			additions.WithRunnerOptions(pc.RunnerOptions()...),
		)
	})
}

// Migrations manages the default migrations plus the example migration,
// which only runs when named.
func (pc *ProjectContext) Migrations() *migrations.Manager {
	pc.initManagers()
	return pc.migrationMgr
}

func (pc *ProjectContext) Additions() *additions.Manager {
	pc.initManagers()
	return pc.additionMgr
}

type spinnerInstaller struct {
	inner codemods.Installer
}

func (s spinnerInstaller) Install(ctx context.Context, root string) error {
	return ui.RunWithSpinner("Installing dependencies...", func() error {
		return s.inner.Install(ctx, root)
	})
}

// parseOptions turns repeated --option key=value flags into raw codemod
// options. A bare key means true.
func parseOptions(values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	options := make(map[string]any, len(values))
	for _, v := range values {
		key, value, found := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: %q has no option name", codemods.ErrInvalidOptions, v)
		}
		if !found {
			value = "true"
		}
		options[key] = value
	}
	return options, nil
}
