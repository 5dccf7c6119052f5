package migrations

import (
	"context"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/codemods"
	"github.com/grafana/create-plugin/internal/config"
	"github.com/grafana/create-plugin/internal/fs"
)

type Manager struct {
	root       string
	registry   *Registry
	fs         fs.FS
	logger     *log.Logger
	committer  codemods.Committer
	runnerOpts []codemods.RunnerOption
}

type ManagerOption func(*Manager)

func WithFS(fsys fs.FS) ManagerOption {
	return func(m *Manager) { m.fs = fsys }
}

func WithLogger(logger *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

func WithCommitter(committer codemods.Committer) ManagerOption {
	return func(m *Manager) { m.committer = committer }
}

// WithRunnerOptions passes extra collaborators (reporter, formatter,
// installer) through to the runner.
func WithRunnerOptions(opts ...codemods.RunnerOption) ManagerOption {
	return func(m *Manager) { m.runnerOpts = append(m.runnerOpts, opts...) }
}

// NewManager creates a manager over registry. A nil registry means Default().
func NewManager(root string, registry *Registry, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = Default()
	}
	m := &Manager{
		root:     root,
		registry: registry,
		fs:       fs.Default,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// CommitMessage is the checkpoint message used for a migration.
func CommitMessage(mig Migration) string {
	return fmt.Sprintf("chore: run create-plugin migration - %s\n\n%s", mig.Name, mig.Description)
}

// ConfigCommitMessage is the final checkpoint message after the root config
// has been bumped.
func ConfigCommitMessage(version string) string {
	return fmt.Sprintf("chore: update %s to version %s.", config.RootConfigPath, version)
}

// NeedsUpdate reports whether a project at from is behind to.
func NeedsUpdate(from, to string) (bool, error) {
	fromV, err := semver.NewVersion(from)
	if err != nil {
		return false, fmt.Errorf("%w: %q", codemods.ErrInvalidVersion, from)
	}
	toV, err := semver.NewVersion(to)
	if err != nil {
		return false, fmt.Errorf("%w: %q", codemods.ErrInvalidVersion, to)
	}
	return fromV.LessThan(toV), nil
}

// Update runs every migration between cfg.FromVersion and cfg.ToVersion and
// then records ToVersion in the root config. The root config is left alone
// when a migration fails, on dry runs and when there is nothing to update.
func (m *Manager) Update(ctx context.Context, cfg config.RunConfig) (*codemods.Report, error) {
	needed, err := NeedsUpdate(cfg.FromVersion, cfg.ToVersion)
	if err != nil {
		return nil, err
	}
	if !needed {
		m.logger.Info("nothing to update", "from", cfg.FromVersion, "to", cfg.ToVersion)
		return &codemods.Report{State: codemods.StateCompleted, Index: -1}, nil
	}

	selected, err := m.registry.Select(cfg.FromVersion, cfg.ToVersion)
	if err != nil {
		return nil, err
	}
	m.logger.Info("running migrations", "from", cfg.FromVersion, "to", cfg.ToVersion, "count", len(selected))

	report, err := m.run(ctx, selected, nil, codemods.RunOptions{
		CommitEach: cfg.CommitEachMigration,
		DryRun:     cfg.DryRun,
	})
	if err != nil || cfg.DryRun {
		return report, err
	}

	if err := config.SetRootConfig(m.fs, m.root, cfg.ToVersion); err != nil {
		return report, err
	}
	if cfg.CommitEachMigration && m.committer != nil {
		if err := m.committer.CommitAll(ctx, m.root, ConfigCommitMessage(cfg.ToVersion)); err != nil {
			return report, fmt.Errorf("committing config update: %w", err)
		}
	}

	return report, nil
}

// RunNamed runs the named migrations in the given order, regardless of the
// project version. Options are handed to every migration.
func (m *Manager) RunNamed(ctx context.Context, names []string, options map[string]any, opts codemods.RunOptions) (*codemods.Report, error) {
	selected := make([]Migration, 0, len(names))
	for _, name := range names {
		mig, err := m.registry.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, mig)
	}
	return m.run(ctx, selected, options, opts)
}

func (m *Manager) run(ctx context.Context, selected []Migration, options map[string]any, opts codemods.RunOptions) (*codemods.Report, error) {
	mods := make([]codemods.Codemod, 0, len(selected))
	for _, mig := range selected {
		mods = append(mods, codemods.Codemod{
			Name:          mig.Name,
			Description:   mig.Description,
			Script:        mig.Script,
			Options:       options,
			CommitMessage: CommitMessage(mig),
		})
	}

	runnerOpts := []codemods.RunnerOption{
		codemods.WithRunnerFS(m.fs),
		codemods.WithRunnerLogger(m.logger),
	}
	if m.committer != nil {
		runnerOpts = append(runnerOpts, codemods.WithCommitter(m.committer))
	}
	runnerOpts = append(runnerOpts, m.runnerOpts...)

	return codemods.NewRunner(m.root, runnerOpts...).Run(ctx, mods, opts)
}
