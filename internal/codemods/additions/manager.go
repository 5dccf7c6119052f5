package additions

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/grafana/create-plugin/internal/codemods"
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

func CommitMessage(a Addition) string {
	return fmt.Sprintf("chore: add %s support via create-plugin", a.Name)
}

// Run applies the named additions in order. Options are handed to every
// addition and validated against its option type before it runs.
func (m *Manager) Run(ctx context.Context, names []string, options map[string]any, opts codemods.RunOptions) (*codemods.Report, error) {
	mods := make([]codemods.Codemod, 0, len(names))
	for _, name := range names {
		a, err := m.registry.Get(name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, codemods.Codemod{
			Name:          a.Name,
			Description:   a.Description,
			Script:        a.Script,
			Options:       options,
			CommitMessage: CommitMessage(a),
		})
	}
	m.logger.Info("running additions", "names", names)

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
